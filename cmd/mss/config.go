package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dep2p/go-mss/config"
)

// ============================================================================
//                              配置加载（CLI 专用）
// ============================================================================

// 环境变量名
const (
	envPrefix     = "MSS_"
	envPreset     = "PRESET"
	envListenAddr = "LISTEN_ADDR"
	envDialAddr   = "DIAL_ADDR"
	envMetrics    = "METRICS_ADDR"
)

// loadConfig 加载配置文件并应用预设
//
// 预设取自参数，参数为空时取 MSS_PRESET。
func loadConfig(path, preset string) (*config.Config, error) {
	cfg := config.NewConfig()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
		cfg = loaded
	}

	if preset == "" {
		preset = os.Getenv(envPrefix + envPreset)
	}
	if preset != "" {
		if err := config.ApplyPreset(cfg, preset); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// applyEnvOverrides 应用环境变量覆盖配置
//
// 环境变量优先级高于配置文件，但低于命令行参数。
func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv(envPrefix + envListenAddr); v != "" {
		cfg.Listen.Addr = v
	}
	if v := os.Getenv(envPrefix + envDialAddr); v != "" {
		cfg.Dial.Addr = v
	}
	if v := os.Getenv(envPrefix + envMetrics); v != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = v
	}
}

// splitAndTrim 分割字符串并去除空白
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
