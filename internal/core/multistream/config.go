package multistream

import (
	"fmt"
	"strings"
	"time"

	"github.com/dep2p/go-mss/pkg/lib/msgio"
)

// ListPolicy 响应方对 "ls" 请求的处理策略
type ListPolicy int

const (
	// ListProtocols 返回剩余可协商的协议列表，然后继续等待请求
	ListProtocols ListPolicy = iota
	// RejectList 以 ErrNotImplemented 终止协商
	RejectList
)

// String 返回策略名称
func (p ListPolicy) String() string {
	switch p {
	case ListProtocols:
		return "list"
	case RejectList:
		return "reject"
	default:
		return "unknown"
	}
}

// ParseListPolicy 解析策略名称
func ParseListPolicy(s string) (ListPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "list":
		return ListProtocols, nil
	case "reject", "none":
		return RejectList, nil
	default:
		return 0, fmt.Errorf("%w: unknown ls policy %q", ErrInvalidConfig, s)
	}
}

// Config 协商配置
type Config struct {
	// Timeout 单次协商超时，0 表示不设超时（由调用方的 context 决定）
	Timeout time.Duration

	// MaxMessageSize 单帧最大长度（含换行符）
	MaxMessageSize int

	// ListPolicy "ls" 请求处理策略
	ListPolicy ListPolicy
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Timeout:        0,
		MaxMessageSize: msgio.DefaultMaxMessageSize,
		ListPolicy:     ListProtocols,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("%w: max message size must be positive", ErrInvalidConfig)
	}
	if c.ListPolicy != ListProtocols && c.ListPolicy != RejectList {
		return fmt.Errorf("%w: unknown ls policy %d", ErrInvalidConfig, c.ListPolicy)
	}
	return nil
}

// WithTimeout 设置协商超时
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}

// WithMaxMessageSize 设置最大帧长度
func (c Config) WithMaxMessageSize(n int) Config {
	c.MaxMessageSize = n
	return c
}

// WithListPolicy 设置 "ls" 策略
func (c Config) WithListPolicy(p ListPolicy) Config {
	c.ListPolicy = p
	return c
}
