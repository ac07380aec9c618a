package config

import (
	"errors"
	"strings"
)

// LogConfig 日志配置
type LogConfig struct {
	// Level 默认日志级别
	// 可选值: "debug", "info", "warn", "error"
	Level string `json:"level" toml:"level"`

	// Format 输出格式
	// 可选值: "text", "json"
	Format string `json:"format" toml:"format"`

	// Components 按组件覆盖的日志级别，例如 {"core/multistream": "debug"}
	Components map[string]string `json:"components,omitempty" toml:"components"`

	// AddSource 是否输出源码位置
	AddSource bool `json:"add_source,omitempty" toml:"add_source"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate 验证日志配置
func (c LogConfig) Validate() error {
	if !validLevel(c.Level) {
		return errors.New("log level must be one of debug/info/warn/error")
	}
	for _, lvl := range c.Components {
		if !validLevel(lvl) {
			return errors.New("component log level must be one of debug/info/warn/error")
		}
	}
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
	default:
		return errors.New("log format must be 'text' or 'json'")
	}
	return nil
}

func validLevel(s string) bool {
	switch strings.ToLower(s) {
	case "", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}
