// Package app 提供 go-mss 应用编排层
//
// app 包负责：
// - fx 模块组装
// - 依赖注入协调
// - 生命周期管理
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-mss/config"
	"github.com/dep2p/go-mss/internal/core/metrics"
	"github.com/dep2p/go-mss/internal/core/protocache"
	logutil "github.com/dep2p/go-mss/internal/util/logger"
)

// Bootstrap 应用引导程序
//
// Bootstrap 负责：
// - 校验配置并安装日志
// - 组装 fx 模块
// - 管理应用生命周期
type Bootstrap struct {
	config  *config.Config
	opts    BuildOptions
	fxApp   *fx.App
	runtime *Runtime
}

// NewBootstrap 创建引导程序，cfg 为 nil 时使用默认配置
func NewBootstrap(cfg *config.Config, opts ...BootstrapOption) *Bootstrap {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	o := DefaultBuildOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Bootstrap{config: cfg, opts: o}
}

// runtimeParams 从容器中取出运行时句柄
type runtimeParams struct {
	fx.In

	Listener      *Listener `optional:"true"`
	Dialer        *Dialer
	Registry      *prometheus.Registry
	Reporter      metrics.Reporter
	Cache         *protocache.Cache `optional:"true"`
	MetricsServer *MetricsServer    `optional:"true"`
}

// Build 构建运行时（不启动）
func (b *Bootstrap) Build() (*Runtime, error) {
	if b.runtime != nil {
		return b.runtime, nil
	}
	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}

	b.setupLogging()

	rt := &Runtime{stop: b.Stop}
	b.fxApp = fx.New(
		fx.Options(b.setupModules()...),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
		fx.Invoke(func(p runtimeParams) {
			rt.Listener = p.Listener
			rt.Dialer = p.Dialer
			rt.Registry = p.Registry
			rt.Reporter = p.Reporter
			rt.Cache = p.Cache
			rt.MetricsServer = p.MetricsServer
		}),
	)
	if err := b.fxApp.Err(); err != nil {
		return nil, fmt.Errorf("组装模块失败: %w", err)
	}

	b.runtime = rt
	return rt, nil
}

// Start 构建并启动运行时
//
// 启用监听时返回后 Listener 已在接受连接。
func (b *Bootstrap) Start(ctx context.Context) (*Runtime, error) {
	rt, err := b.Build()
	if err != nil {
		return nil, err
	}

	startCtx, cancel := context.WithTimeout(ctx, b.opts.StartTimeout)
	defer cancel()

	if err := b.fxApp.Start(startCtx); err != nil {
		return nil, fmt.Errorf("启动应用失败: %w", err)
	}
	return rt, nil
}

// Stop 停止应用
func (b *Bootstrap) Stop(ctx context.Context) error {
	if b.fxApp == nil {
		return nil
	}

	stopCtx, cancel := context.WithTimeout(ctx, b.opts.StopTimeout)
	defer cancel()

	return b.fxApp.Stop(stopCtx)
}

// setupModules 组装所有 fx 模块
func (b *Bootstrap) setupModules() []fx.Option {
	modules := []fx.Option{
		// 配置（Tier 0）
		fx.Supply(b.config),

		// 协商核心（Tier 1）
		CoreModules(),

		// 发起方（Tier 2）
		DialModules(),

		// 监控（Tier 3）
		MonitoringModules(),
	}

	if b.opts.Listen {
		modules = append(modules, ListenModules())
	}
	return append(modules, b.opts.FxOptions...)
}

// setupLogging 按配置安装默认 Logger
//
// 环境变量 MSS_LOG_LEVEL 在配置之上追加覆盖。
func (b *Bootstrap) setupLogging() {
	if !b.opts.InstallLogger {
		return
	}
	lc := LogConfig(b.config.Log)
	if spec := os.Getenv("MSS_LOG_LEVEL"); spec != "" {
		logutil.ApplyLevelSpec(&lc, spec)
	}
	logutil.Install(lc)
}

// LogConfig 将统一配置中的日志部分转换为 handler 配置
func LogConfig(c config.LogConfig) logutil.Config {
	lc := logutil.DefaultConfig()
	if lvl, ok := logutil.ParseLevel(c.Level); ok {
		lc.DefaultLevel = lvl
	}
	for component, name := range c.Components {
		if lvl, ok := logutil.ParseLevel(name); ok {
			lc.ComponentLevels[component] = lvl
		}
	}
	lc.Format = logutil.ParseFormat(c.Format)
	lc.AddSource = c.AddSource
	return lc
}
