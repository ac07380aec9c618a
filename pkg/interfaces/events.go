package interfaces

import (
	"context"

	"github.com/dep2p/go-mss/pkg/types"
)

// EventSink 协商事件接收器
//
// 协商核心不直接输出日志，所有可观测信息通过 EventSink 传出。
// 实现必须是并发安全的，同一个 EventSink 可能被多个连接共享。
type EventSink interface {
	HandleEvent(ctx context.Context, ev types.NegotiationEvent)
}

// EventSinkFunc 函数形式的 EventSink
type EventSinkFunc func(ctx context.Context, ev types.NegotiationEvent)

// HandleEvent 实现 EventSink
func (f EventSinkFunc) HandleEvent(ctx context.Context, ev types.NegotiationEvent) {
	f(ctx, ev)
}

// MultiSink 将事件分发给多个 EventSink
type MultiSink []EventSink

// HandleEvent 实现 EventSink
func (m MultiSink) HandleEvent(ctx context.Context, ev types.NegotiationEvent) {
	for _, s := range m {
		if s != nil {
			s.HandleEvent(ctx, ev)
		}
	}
}

// NopSink 丢弃所有事件
type NopSink struct{}

// HandleEvent 实现 EventSink
func (NopSink) HandleEvent(context.Context, types.NegotiationEvent) {}
