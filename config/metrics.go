package config

import "errors"

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	// Enabled 是否启用指标
	Enabled bool `json:"enabled" toml:"enabled"`

	// Addr /metrics HTTP 端点地址，为空时只注册收集器不对外暴露
	Addr string `json:"addr,omitempty" toml:"addr"`

	// Namespace 指标名前缀
	Namespace string `json:"namespace" toml:"namespace"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "mss",
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if c.Enabled && c.Namespace == "" {
		return errors.New("metrics namespace is required when metrics are enabled")
	}
	return nil
}
