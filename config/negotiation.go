package config

import (
	"errors"
	"strings"
	"time"
)

// NegotiationConfig multistream-select 协商配置
type NegotiationConfig struct {
	// Timeout 单次协商超时，0 表示只受调用方 context 约束
	Timeout Duration `json:"timeout" toml:"timeout"`

	// MaxMessageSize 单帧最大长度（含换行符）
	MaxMessageSize int `json:"max_message_size" toml:"max_message_size"`

	// ListPolicy 响应方对 "ls" 的处理
	// 可选值: "list", "reject"
	ListPolicy string `json:"list_policy" toml:"list_policy"`
}

// DefaultNegotiationConfig 返回默认协商配置
func DefaultNegotiationConfig() NegotiationConfig {
	return NegotiationConfig{
		Timeout:        Duration(10 * time.Second), // 协商超时：10 秒
		MaxMessageSize: 64 * 1024,                  // 单帧上限：64 KiB
		ListPolicy:     "list",                     // 默认响应 "ls"
	}
}

// Validate 验证协商配置
func (c NegotiationConfig) Validate() error {
	if c.Timeout < 0 {
		return errors.New("negotiation timeout must not be negative")
	}
	if c.MaxMessageSize <= 0 {
		return errors.New("negotiation max message size must be positive")
	}
	switch strings.ToLower(c.ListPolicy) {
	case "", "list", "reject", "none":
	default:
		return errors.New("negotiation list policy must be 'list' or 'reject'")
	}
	return nil
}

// WithTimeout 设置协商超时
func (c NegotiationConfig) WithTimeout(d time.Duration) NegotiationConfig {
	c.Timeout = Duration(d)
	return c
}

// WithListPolicy 设置 "ls" 策略
func (c NegotiationConfig) WithListPolicy(p string) NegotiationConfig {
	c.ListPolicy = p
	return c
}
