package config

import "errors"

// CacheConfig 协议缓存配置
//
// 发起方记住每个远端最近一次接受的协议，下次拨号时优先提议它，
// 省掉被拒绝的往返。
type CacheConfig struct {
	// Enabled 是否启用
	Enabled bool `json:"enabled" toml:"enabled"`

	// Size 最多记住的远端数量
	Size int `json:"size" toml:"size"`
}

// DefaultCacheConfig 返回默认缓存配置
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: true,
		Size:    1024,
	}
}

// Validate 验证缓存配置
func (c CacheConfig) Validate() error {
	if c.Enabled && c.Size <= 0 {
		return errors.New("cache size must be positive when cache is enabled")
	}
	return nil
}
