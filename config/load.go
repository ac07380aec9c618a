package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。
//
// 示例 JSON:
//
//	{
//	  "negotiation": {"timeout": "5s", "list_policy": "reject"},
//	  "listen": {"addr": ":4001"}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// FromTOML 从 TOML 数据创建配置
//
// 示例 TOML:
//
//	[negotiation]
//	timeout = "5s"
//	list_policy = "reject"
//
//	[listen]
//	addr = ":4001"
func FromTOML(data []byte) (*Config, error) {
	cfg := NewConfig()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode toml config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config keys: %v", undecoded)
	}
	return cfg, nil
}

// Load 从文件加载配置并验证
//
// 按扩展名选择格式：.toml 使用 TOML，其余按 JSON 解析。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		cfg, err = FromTOML(data)
	default:
		cfg, err = FromJSON(data)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ToJSON 将配置编码为缩进的 JSON
func ToJSON(cfg *Config) ([]byte, error) {
	return json.MarshalIndent(cfg, "", "  ")
}

// ToTOML 将配置编码为 TOML
func ToTOML(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ApplyPreset 应用预设配置
//
// 支持的预设：
//   - "default": 默认值
//   - "server": 长期运行的监听端，放宽连接数与缓存
//   - "minimal": 关闭指标和缓存
func ApplyPreset(cfg *Config, presetName string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch presetName {
	case "default":
		*cfg = *NewConfig()
	case "server":
		cfg.Listen.Addr = "0.0.0.0:4001"
		cfg.Listen.MaxConns = 4096
		cfg.Cache.Size = 16384
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = ":9090"
	case "minimal":
		cfg.Metrics.Enabled = false
		cfg.Metrics.Addr = ""
		cfg.Cache.Enabled = false
		cfg.Yamux.EnableKeepAlive = false
	default:
		return fmt.Errorf("unknown preset: %s", presetName)
	}
	return nil
}
