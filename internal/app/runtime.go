package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-mss/internal/core/metrics"
	"github.com/dep2p/go-mss/internal/core/protocache"
)

// Runtime 表示一个已通过 fx 组装完成的 go-mss 运行时
type Runtime struct {
	// Listener 响应方，未启用监听时为 nil
	Listener *Listener

	// Dialer 发起方
	Dialer *Dialer

	// Registry 本运行时的指标注册表
	Registry *prometheus.Registry

	// Reporter 按协议的带宽统计
	Reporter metrics.Reporter

	// Cache 协议缓存，关闭时为 nil
	Cache *protocache.Cache

	// MetricsServer 指标端点，未配置时为 nil
	MetricsServer *MetricsServer

	stop func(ctx context.Context) error
}

// Stop 停止运行时（触发 fx 生命周期 OnStop）
func (r *Runtime) Stop(ctx context.Context) error {
	if r.stop == nil {
		return nil
	}
	return r.stop(ctx)
}
