package app

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-mss/internal/core/metrics"
	"github.com/dep2p/go-mss/internal/core/multistream"
	"github.com/dep2p/go-mss/internal/core/protocache"
)

// 集中维护"哪些模块属于哪一层"，是 Bootstrap 组装的唯一模块来源。

// CoreModules 协商核心：配置、事件汇总、指标和协议缓存
//
// 始终加载。metrics 通过 `group:"event_sinks"` 接入 multistream 的事件汇总。
func CoreModules() fx.Option {
	return fx.Options(
		multistream.Module(),
		metrics.Module(),
		protocache.Module(),
	)
}

// DialModules 发起方
func DialModules() fx.Option {
	return fx.Provide(NewDialer)
}

// ListenModules 响应方监听
//
// Invoke 保证 Listener 被构建，从而把监听挂到生命周期上。
func ListenModules() fx.Option {
	return fx.Options(
		fx.Provide(NewListener),
		fx.Invoke(func(*Listener) {}),
	)
}

// MonitoringModules /metrics 端点
func MonitoringModules() fx.Option {
	return fx.Options(
		fx.Provide(NewMetricsServer),
		fx.Invoke(func(*MetricsServer) {}),
	)
}
