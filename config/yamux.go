package config

import (
	"errors"
	"time"
)

// YamuxConfig yamux 多路复用配置
type YamuxConfig struct {
	// AcceptBacklog 未被接受的入站流上限
	AcceptBacklog int `json:"accept_backlog" toml:"accept_backlog"`

	// EnableKeepAlive 是否发送心跳
	EnableKeepAlive bool `json:"enable_keep_alive" toml:"enable_keep_alive"`

	// KeepAliveInterval 心跳间隔
	KeepAliveInterval Duration `json:"keep_alive_interval" toml:"keep_alive_interval"`

	// ConnectionWriteTimeout 写超时
	ConnectionWriteTimeout Duration `json:"connection_write_timeout" toml:"connection_write_timeout"`

	// MaxStreamWindowSize 单流最大窗口
	MaxStreamWindowSize uint32 `json:"max_stream_window_size" toml:"max_stream_window_size"`

	// StreamOpenTimeout 打开流超时
	StreamOpenTimeout Duration `json:"stream_open_timeout" toml:"stream_open_timeout"`

	// StreamCloseTimeout 关闭流超时
	StreamCloseTimeout Duration `json:"stream_close_timeout" toml:"stream_close_timeout"`
}

// DefaultYamuxConfig 返回默认 yamux 配置
func DefaultYamuxConfig() YamuxConfig {
	return YamuxConfig{
		AcceptBacklog:          256,
		EnableKeepAlive:        true,
		KeepAliveInterval:      Duration(30 * time.Second),
		ConnectionWriteTimeout: Duration(10 * time.Second),
		MaxStreamWindowSize:    256 * 1024, // 256 KB
		StreamOpenTimeout:      Duration(75 * time.Second),
		StreamCloseTimeout:     Duration(5 * time.Minute),
	}
}

// Validate 验证 yamux 配置
func (c YamuxConfig) Validate() error {
	if c.AcceptBacklog <= 0 {
		return errors.New("yamux accept backlog must be positive")
	}
	if c.EnableKeepAlive && c.KeepAliveInterval <= 0 {
		return errors.New("yamux keep alive interval must be positive")
	}
	if c.ConnectionWriteTimeout <= 0 {
		return errors.New("yamux connection write timeout must be positive")
	}
	// yamux 要求窗口不小于初始窗口 256 KB
	if c.MaxStreamWindowSize < 256*1024 {
		return errors.New("yamux max stream window size must be at least 256KB")
	}
	return nil
}
