package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/dep2p/go-mss/config"
)

// MetricsServer 在 /metrics 上暴露应用自己的 Prometheus 注册表
//
// 只有启用指标且配置了地址时才会监听。
type MetricsServer struct {
	addr string
	srv  *http.Server

	mu sync.Mutex
	ln net.Listener
}

// MetricsServerParams 依赖参数
type MetricsServerParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	UnifiedCfg *config.Config `optional:"true"`
	Registry   *prometheus.Registry
}

// NewMetricsServer 创建指标端点，未配置时返回 nil
func NewMetricsServer(p MetricsServerParams) *MetricsServer {
	if p.UnifiedCfg == nil || !p.UnifiedCfg.Metrics.Enabled || p.UnifiedCfg.Metrics.Addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{
		Registry:          p.Registry,
		EnableOpenMetrics: true,
	}))

	s := &MetricsServer{
		addr: p.UnifiedCfg.Metrics.Addr,
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
	p.Lifecycle.Append(fx.Hook{
		OnStart: s.Start,
		OnStop:  s.Stop,
	})
	return s
}

// Addr 返回实际监听地址
func (s *MetricsServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Start 开始监听
func (s *MetricsServer) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("指标端点监听 %s 失败: %w", s.addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("指标端点退出", "err", err)
		}
	}()
	logger.Info("指标端点已启动", "addr", ln.Addr().String())
	return nil
}

// Stop 关闭指标端点
func (s *MetricsServer) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
