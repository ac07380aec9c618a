// Package yamux 提供 /yamux/1.0.0 协议：在协商完成的流上建立 yamux 会话，
// 并在每个子流上独立运行一次 multistream-select 协商。
package yamux

import (
	"io"

	"github.com/hashicorp/yamux"

	"github.com/dep2p/go-mss/config"
	"github.com/dep2p/go-mss/pkg/types"
)

// ID yamux 协议 ID
const ID = types.YamuxProtocol

// DefaultYamuxConfig 返回默认的 yamux 配置
func DefaultYamuxConfig() *yamux.Config {
	return ConfigToYamux(config.DefaultYamuxConfig())
}

// ConfigToYamux 将统一配置中的 yamux 段转换为 yamux.Config
func ConfigToYamux(cfg config.YamuxConfig) *yamux.Config {
	yc := yamux.DefaultConfig()

	if cfg.AcceptBacklog > 0 {
		yc.AcceptBacklog = cfg.AcceptBacklog
	}
	yc.EnableKeepAlive = cfg.EnableKeepAlive
	if cfg.KeepAliveInterval > 0 {
		yc.KeepAliveInterval = cfg.KeepAliveInterval.Duration()
	}
	if cfg.ConnectionWriteTimeout > 0 {
		yc.ConnectionWriteTimeout = cfg.ConnectionWriteTimeout.Duration()
	}
	if cfg.MaxStreamWindowSize > 0 {
		yc.MaxStreamWindowSize = cfg.MaxStreamWindowSize
	}
	if cfg.StreamOpenTimeout > 0 {
		yc.StreamOpenTimeout = cfg.StreamOpenTimeout.Duration()
	}
	if cfg.StreamCloseTimeout > 0 {
		yc.StreamCloseTimeout = cfg.StreamCloseTimeout.Duration()
	}
	yc.LogOutput = io.Discard // 禁用 yamux 自带日志
	return yc
}

// YamuxToConfig 将 yamux.Config 转换回统一配置
func YamuxToConfig(yc *yamux.Config) config.YamuxConfig {
	return config.YamuxConfig{
		AcceptBacklog:          yc.AcceptBacklog,
		EnableKeepAlive:        yc.EnableKeepAlive,
		KeepAliveInterval:      config.Duration(yc.KeepAliveInterval),
		ConnectionWriteTimeout: config.Duration(yc.ConnectionWriteTimeout),
		MaxStreamWindowSize:    yc.MaxStreamWindowSize,
		StreamOpenTimeout:      config.Duration(yc.StreamOpenTimeout),
		StreamCloseTimeout:     config.Duration(yc.StreamCloseTimeout),
	}
}
