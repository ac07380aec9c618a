package protocache

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-mss/config"
)

// Params 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("protocache",
		fx.Provide(Provide),
	)
}

// Provide 根据配置创建缓存；关闭时返回 nil
func Provide(p Params) (*Cache, error) {
	cfg := config.DefaultCacheConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg.Cache
	}
	if !cfg.Enabled {
		return nil, nil
	}
	return New(cfg.Size)
}
