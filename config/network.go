package config

import (
	"errors"
	"net"
	"time"
)

// ListenConfig 响应方监听配置
type ListenConfig struct {
	// Addr 监听地址，例如 ":4001"
	Addr string `json:"addr" toml:"addr"`

	// Protocols 对外提供的协议，按顺序注册
	// 为空时提供全部内置协议
	Protocols []string `json:"protocols,omitempty" toml:"protocols"`

	// MaxConns 同时处理的最大入站连接数，0 表示不限制
	MaxConns int `json:"max_conns" toml:"max_conns"`
}

// DefaultListenConfig 返回默认监听配置
func DefaultListenConfig() ListenConfig {
	return ListenConfig{
		Addr:     "127.0.0.1:4001",
		MaxConns: 256,
	}
}

// Validate 验证监听配置
func (c ListenConfig) Validate() error {
	if c.Addr == "" {
		return errors.New("listen addr is required")
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return errors.New("listen addr must be host:port")
	}
	if c.MaxConns < 0 {
		return errors.New("listen max conns must not be negative")
	}
	return nil
}

// DialConfig 发起方拨号配置
type DialConfig struct {
	// Addr 目标地址
	Addr string `json:"addr" toml:"addr"`

	// Protocols 按偏好顺序提议的协议
	Protocols []string `json:"protocols,omitempty" toml:"protocols"`

	// Timeout 建立 TCP 连接的超时
	Timeout Duration `json:"timeout" toml:"timeout"`

	// UseYamux 先协商 yamux，再在子流上协商业务协议
	UseYamux bool `json:"use_yamux" toml:"use_yamux"`
}

// DefaultDialConfig 返回默认拨号配置
func DefaultDialConfig() DialConfig {
	return DialConfig{
		Addr:    "127.0.0.1:4001",
		Timeout: Duration(5 * time.Second),
	}
}

// Validate 验证拨号配置
func (c DialConfig) Validate() error {
	if c.Timeout < 0 {
		return errors.New("dial timeout must not be negative")
	}
	return nil
}
