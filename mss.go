package mss

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-mss/internal/core/multistream"
	"github.com/dep2p/go-mss/pkg/interfaces"
	"github.com/dep2p/go-mss/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              类型别名
// ════════════════════════════════════════════════════════════════════════════

type (
	// ProtocolID 协议标识符
	ProtocolID = types.ProtocolID

	// Role 协商角色
	Role = types.Role

	// Transport 协商运行的双向字节流
	Transport = interfaces.Transport

	// EventSink 协商事件接收器
	EventSink = interfaces.EventSink

	// Event 协商事件
	Event = types.NegotiationEvent

	// Stream 协商完成后交给处理器的流
	Stream = multistream.Stream

	// Option 协商选项
	Option = multistream.Option

	// ListPolicy 响应方处理 "ls" 的策略
	ListPolicy = multistream.ListPolicy
)

const (
	// RoleInitiator 发起方
	RoleInitiator = types.RoleInitiator

	// RoleResponder 响应方
	RoleResponder = types.RoleResponder

	// ListProtocols 响应 "ls"（默认）
	ListProtocols = multistream.ListProtocols

	// RejectList 收到 "ls" 时以 ErrNotImplemented 终止
	RejectList = multistream.RejectList
)

// ════════════════════════════════════════════════════════════════════════════
//                              Negotiator
// ════════════════════════════════════════════════════════════════════════════

// Negotiator 协商构建器
//
// 值类型，Register 返回新的 Negotiator，原值不受影响。
type Negotiator[R any] struct {
	n multistream.Negotiator[R]
}

// Start 创建协商构建器，此时不做任何 I/O
func Start[R any](t Transport, role Role, opts ...Option) Negotiator[R] {
	return Negotiator[R]{n: multistream.Start[R](t, role, opts...)}
}

// Register 注册协议及其处理器，发起方按注册顺序提议
func (n Negotiator[R]) Register(id ProtocolID, h interfaces.Handler[R]) Negotiator[R] {
	return Negotiator[R]{n: n.n.Register(id, h)}
}

// RegisterFunc 以函数形式注册处理器
func (n Negotiator[R]) RegisterFunc(id ProtocolID, f func(ctx context.Context, id ProtocolID, s Transport) (R, error)) Negotiator[R] {
	return Negotiator[R]{n: n.n.RegisterFunc(id, f)}
}

// Role 返回本端角色
func (n Negotiator[R]) Role() Role {
	return n.n.Role()
}

// Protocols 返回已注册的协议
func (n Negotiator[R]) Protocols() []ProtocolID {
	return n.n.Protocols()
}

// Finish 执行协商，成功时调用被选中协议的处理器并返回其结果
func (n Negotiator[R]) Finish(ctx context.Context) (R, error) {
	return n.n.Finish(ctx)
}

// ════════════════════════════════════════════════════════════════════════════
//                              便捷函数
// ════════════════════════════════════════════════════════════════════════════

// SelectOneOf 作为发起方按顺序提议，返回被接受的协议和协商完成的流
func SelectOneOf(ctx context.Context, t Transport, protocols []ProtocolID, opts ...Option) (ProtocolID, *Stream, error) {
	return multistream.SelectOneOf(ctx, t, protocols, opts...)
}

// Accept 作为响应方等待对方请求 protocols 中的某一个
func Accept(ctx context.Context, t Transport, protocols []ProtocolID, opts ...Option) (ProtocolID, *Stream, error) {
	return multistream.Accept(ctx, t, protocols, opts...)
}

// ListRemote 作为发起方请求对方支持的协议列表
func ListRemote(ctx context.Context, t Transport, opts ...Option) ([]ProtocolID, error) {
	return multistream.ListRemote(ctx, t, opts...)
}

// ════════════════════════════════════════════════════════════════════════════
//                              选项
// ════════════════════════════════════════════════════════════════════════════

// WithTimeout 设置协商超时，0 表示不设超时
func WithTimeout(d time.Duration) Option {
	return multistream.WithTimeout(d)
}

// WithMaxMessageSize 设置单帧上限
func WithMaxMessageSize(n int) Option {
	return multistream.WithMaxMessageSize(n)
}

// WithListPolicy 设置响应方处理 "ls" 的策略
func WithListPolicy(p ListPolicy) Option {
	return multistream.WithListPolicy(p)
}

// WithEventSink 设置事件接收器
func WithEventSink(sink EventSink) Option {
	return multistream.WithEventSink(sink)
}

// WithLogEvents 把协商事件写入 core/multistream 日志
func WithLogEvents() Option {
	return multistream.WithEventSink(multistream.NewLogSink())
}

// WithClock 设置时钟
func WithClock(c clock.Clock) Option {
	return multistream.WithClock(c)
}

// WithKeepOnError 协商失败时不关闭传输
func WithKeepOnError() Option {
	return multistream.WithKeepOnError()
}

// WithListFirst 发起方先列出对方协议，只提议共同支持的协议
func WithListFirst() Option {
	return multistream.WithListFirst()
}
