package logger

import (
	"io"
	"log/slog"
)

// New 按配置创建 Logger，输出到全局输出目标
func New(cfg Config) *slog.Logger {
	return slog.New(newHandler(&dynamicWriter{}, cfg))
}

// NewWithWriter 按配置创建输出到 w 的 Logger
func NewWithWriter(w io.Writer, cfg Config) *slog.Logger {
	return slog.New(newHandler(w, cfg))
}

// Install 按配置创建 Logger 并设为进程默认 Logger
//
// 所有 log.Logger(component) 之后的调用都会使用它。
func Install(cfg Config) *slog.Logger {
	l := New(cfg)
	slog.SetDefault(l)
	return l
}

// Discard 返回一个丢弃所有日志的 Logger
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// SetOutput 设置全局日志输出目标
//
// 由于使用 dynamicWriter，已创建的 Logger 也会重定向到新的 writer。
func SetOutput(w io.Writer) {
	globalOutputMu.Lock()
	globalOutput = w
	globalOutputMu.Unlock()
}
