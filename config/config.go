// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义
//   - 支持从 JSON 或 TOML 文件加载配置
//   - 支持预设配置（default/server/minimal）
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Negotiation.Timeout = config.Duration(5 * time.Second)
//
//	// 从文件加载（按扩展名选择 JSON 或 TOML）
//	cfg, err := config.Load("mss.toml")
//
//	// 应用预设
//	config.ApplyPreset(cfg, "server")
package config

// Config 是 go-mss 的完整配置结构
//
// 配置按照功能模块组织：
//   - Negotiation: multistream-select 协商参数
//   - Listen: 响应方监听
//   - Dial: 发起方拨号
//   - Log: 日志
//   - Metrics: Prometheus 指标
//   - Cache: 协议缓存
//   - Yamux: 多路复用
type Config struct {
	// Negotiation 协商配置
	Negotiation NegotiationConfig `json:"negotiation" toml:"negotiation"`

	// Listen 监听配置
	Listen ListenConfig `json:"listen" toml:"listen"`

	// Dial 拨号配置
	Dial DialConfig `json:"dial" toml:"dial"`

	// Log 日志配置
	Log LogConfig `json:"log" toml:"log"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics" toml:"metrics"`

	// Cache 协议缓存配置
	Cache CacheConfig `json:"cache" toml:"cache"`

	// Yamux 多路复用配置
	Yamux YamuxConfig `json:"yamux" toml:"yamux"`
}

// NewConfig 创建默认配置
//
// 返回的配置使用所有组件的默认值，适用于大多数场景。
func NewConfig() *Config {
	return &Config{
		Negotiation: DefaultNegotiationConfig(),
		Listen:      DefaultListenConfig(),
		Dial:        DefaultDialConfig(),
		Log:         DefaultLogConfig(),
		Metrics:     DefaultMetricsConfig(),
		Cache:       DefaultCacheConfig(),
		Yamux:       DefaultYamuxConfig(),
	}
}

// Validate 验证配置的有效性
//
// 检查所有子配置是否有效，如果发现无效配置则返回错误。
func (c *Config) Validate() error {
	if err := c.Negotiation.Validate(); err != nil {
		return err
	}
	if err := c.Listen.Validate(); err != nil {
		return err
	}
	if err := c.Dial.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Yamux.Validate(); err != nil {
		return err
	}
	return nil
}
