package multistream

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-mss/config"
	"github.com/dep2p/go-mss/pkg/interfaces"
)

// Params 协商模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config          `optional:"true"`
	Sinks      []interfaces.EventSink `group:"event_sinks"`
}

// Module 返回 Fx 模块
//
// 提供协商配置和汇总后的 EventSink；其他模块可以通过
// `group:"event_sinks"` 追加自己的接收器（例如指标）。
func Module() fx.Option {
	return fx.Module("multistream",
		fx.Provide(
			ProvideConfig,
			ProvideEventSink,
			fx.Annotate(
				ProvideLogSink,
				fx.ResultTags(`group:"event_sinks"`),
			),
		),
	)
}

// ConfigFromUnified 从统一配置创建协商配置
func ConfigFromUnified(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return DefaultConfig(), nil
	}
	policy, err := ParseListPolicy(cfg.Negotiation.ListPolicy)
	if err != nil {
		return Config{}, err
	}
	c := Config{
		Timeout:        cfg.Negotiation.Timeout.Duration(),
		MaxMessageSize: cfg.Negotiation.MaxMessageSize,
		ListPolicy:     policy,
	}
	return c, c.Validate()
}

// ProvideConfig 从统一配置提供协商配置
func ProvideConfig(p Params) (Config, error) {
	return ConfigFromUnified(p.UnifiedCfg)
}

// ProvideLogSink 提供日志事件接收器
func ProvideLogSink() interfaces.EventSink {
	return NewLogSink()
}

// ProvideEventSink 汇总所有事件接收器
func ProvideEventSink(p Params) interfaces.MultiSink {
	return interfaces.MultiSink(p.Sinks)
}

// OptionsFrom 将模块提供的配置与接收器转换为 Negotiator 选项
func OptionsFrom(cfg Config, sink interfaces.MultiSink) []Option {
	return []Option{
		WithConfig(cfg),
		WithEventSink(sink),
	}
}
