package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-mss/config"
	"github.com/dep2p/go-mss/pkg/interfaces"
)

// Config 指标配置
type Config struct {
	// Enabled 是否启用指标收集
	Enabled bool

	// Namespace 指标名前缀
	Namespace string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Namespace: "mss",
	}
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled:   cfg.Metrics.Enabled,
		Namespace: cfg.Metrics.Namespace,
	}
}

// Params Metrics 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Result Metrics 模块输出
type Result struct {
	fx.Out

	Registry  *prometheus.Registry
	Collector *Collector
	Reporter  Reporter
	Sink      interfaces.EventSink `group:"event_sinks"`
}

// Module 返回 metrics 的 Fx 模块
//
// 指标启用时 Collector 加入 `group:"event_sinks"`，由协商模块汇总；
// 关闭时 Collector 为 nil，事件组里放入 NopSink。
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(Provide),
	)
}

// Provide 创建注册表、协商指标和带宽计数器
//
// 每个应用使用独立的注册表，不触碰 prometheus.DefaultRegisterer。
func Provide(p Params) (Result, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)

	reg := prometheus.NewRegistry()
	res := Result{
		Registry: reg,
		Reporter: NewBandwidthCounter(),
		Sink:     interfaces.NopSink{},
	}
	if !cfg.Enabled {
		return res, nil
	}

	collector := NewCollector(cfg.Namespace)
	if err := collector.Register(reg); err != nil {
		return Result{}, err
	}
	res.Collector = collector
	res.Sink = collector
	return res, nil
}
