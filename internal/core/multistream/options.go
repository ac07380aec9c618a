package multistream

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-mss/pkg/interfaces"
)

// settings 单个 Negotiator 的运行参数
type settings struct {
	cfg         Config
	sink        interfaces.EventSink
	clock       clock.Clock
	keepOnError bool
	listFirst   bool
}

func defaultSettings() settings {
	return settings{
		cfg:   DefaultConfig(),
		sink:  interfaces.NopSink{},
		clock: clock.New(),
	}
}

// Option Negotiator 选项
type Option func(*settings)

// WithConfig 整体替换协商配置
func WithConfig(cfg Config) Option {
	return func(s *settings) {
		s.cfg = cfg
	}
}

// WithEventSink 设置事件接收器
func WithEventSink(sink interfaces.EventSink) Option {
	return func(s *settings) {
		if sink == nil {
			sink = interfaces.NopSink{}
		}
		s.sink = sink
	}
}

// WithListPolicy 设置 "ls" 策略
func WithListPolicy(p ListPolicy) Option {
	return func(s *settings) {
		s.cfg.ListPolicy = p
	}
}

// WithMaxMessageSize 设置最大帧长度
func WithMaxMessageSize(n int) Option {
	return func(s *settings) {
		s.cfg.MaxMessageSize = n
	}
}

// WithTimeout 设置协商超时，0 表示不设超时
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.cfg.Timeout = d
	}
}

// WithClock 设置时钟（测试中使用 clock.NewMock）
func WithClock(c clock.Clock) Option {
	return func(s *settings) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithKeepOnError 协商失败时不关闭传输
//
// 默认情况下协商失败会关闭传输（如果它实现了 io.Closer）。
func WithKeepOnError() Option {
	return func(s *settings) {
		s.keepOnError = true
	}
}

// WithListFirst 发起方在提议前先发送 "ls"
//
// 在同一会话上取得对方的协议列表，只提议双方都支持的协议（保持本端顺序）；
// 没有交集时不发出任何提议，直接返回 ErrNoProtocolNegotiated。
// 对响应方无效。
func WithListFirst() Option {
	return func(s *settings) {
		s.listFirst = true
	}
}
