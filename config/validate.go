package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidateAll 验证整个配置的有效性
//
// 这是 Config.Validate() 的别名，额外处理 nil。
func ValidateAll(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}

// ValidateAndFix 验证配置并尝试自动修复常见问题
//
// 可修复的问题：
//   - 协商超时为负 -> 使用默认值
//   - 帧长度上限非正 -> 使用默认值
//   - 策略/级别名称大小写不一致 -> 统一为小写
//   - 缓存大小非正 -> 关闭缓存
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}

	def := DefaultNegotiationConfig()
	if c.Negotiation.Timeout < 0 {
		c.Negotiation.Timeout = def.Timeout
	}
	if c.Negotiation.MaxMessageSize <= 0 {
		c.Negotiation.MaxMessageSize = def.MaxMessageSize
	}
	c.Negotiation.ListPolicy = strings.ToLower(c.Negotiation.ListPolicy)
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)

	if c.Cache.Size <= 0 {
		c.Cache.Enabled = false
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed after fixes: %w", err)
	}
	return c, nil
}

// MustValidate 验证配置，如果失败则 panic
//
// 仅用于初始化阶段或测试代码。
func MustValidate(c *Config) {
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("config validation failed: %v", err))
	}
}
