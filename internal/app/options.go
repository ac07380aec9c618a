package app

import (
	"time"

	"go.uber.org/fx"
)

// BootstrapOption Bootstrap 配置选项
type BootstrapOption func(*BuildOptions)

// BuildOptions 构建选项
type BuildOptions struct {
	// StartTimeout 启动超时
	StartTimeout time.Duration

	// StopTimeout 停止超时
	StopTimeout time.Duration

	// Listen 是否启动响应方监听；只拨号的进程不需要
	Listen bool

	// InstallLogger 是否按配置替换进程默认 Logger
	InstallLogger bool

	// FxOptions 附加的 fx 选项
	FxOptions []fx.Option
}

// DefaultBuildOptions 默认构建选项
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		StartTimeout:  30 * time.Second,
		StopTimeout:   30 * time.Second,
		InstallLogger: true,
	}
}

// WithListen 启动响应方监听
func WithListen() BootstrapOption {
	return func(o *BuildOptions) {
		o.Listen = true
	}
}

// WithStartTimeout 设置启动超时
func WithStartTimeout(d time.Duration) BootstrapOption {
	return func(o *BuildOptions) {
		o.StartTimeout = d
	}
}

// WithStopTimeout 设置停止超时
func WithStopTimeout(d time.Duration) BootstrapOption {
	return func(o *BuildOptions) {
		o.StopTimeout = d
	}
}

// WithoutLoggerInstall 保留当前的默认 Logger
func WithoutLoggerInstall() BootstrapOption {
	return func(o *BuildOptions) {
		o.InstallLogger = false
	}
}

// WithFxOptions 追加 fx 选项，例如额外的事件接收器
func WithFxOptions(opts ...fx.Option) BootstrapOption {
	return func(o *BuildOptions) {
		o.FxOptions = append(o.FxOptions, opts...)
	}
}
