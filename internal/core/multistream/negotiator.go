package multistream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"go.uber.org/multierr"

	"github.com/dep2p/go-mss/pkg/interfaces"
	"github.com/dep2p/go-mss/pkg/types"
)

// ============================================================================
//                              常量
// ============================================================================

const (
	// MultistreamID multistream-select 协议标识
	MultistreamID = types.MultistreamHeader

	// NA 协议不支持响应
	NA = "na"

	// LS 列出协议命令
	LS = "ls"
)

// ============================================================================
//                              Negotiator
// ============================================================================

// entry 协议表中的一项
type entry[R any] struct {
	id      types.ProtocolID
	handler interfaces.Handler[R]
}

// Negotiator multistream-select 协商器
//
// Negotiator 是值类型：Register 返回新值而不修改接收者，
// 因此注册顺序被保留，每一步都可以链式调用。
//
//	result, err := multistream.Start[int](conn, types.RoleInitiator).
//	    Register("/a/1.0.0", handlerA).
//	    Register("/b/1.0.0", handlerB).
//	    Finish(ctx)
//
// 角色在 Start 时确定，协商过程中不会改变。
type Negotiator[R any] struct {
	transport interfaces.Transport
	role      types.Role
	table     []entry[R]
	opts      settings
}

// Start 创建协商器
func Start[R any](t interfaces.Transport, role types.Role, opts ...Option) Negotiator[R] {
	o := defaultSettings()
	for _, opt := range opts {
		opt(&o)
	}
	return Negotiator[R]{
		transport: t,
		role:      role,
		opts:      o,
	}
}

// Register 注册协议及其处理器
func (n Negotiator[R]) Register(id types.ProtocolID, h interfaces.Handler[R]) Negotiator[R] {
	table := make([]entry[R], len(n.table), len(n.table)+1)
	copy(table, n.table)
	n.table = append(table, entry[R]{id: id, handler: h})
	return n
}

// RegisterFunc 以函数形式注册处理器
func (n Negotiator[R]) RegisterFunc(id types.ProtocolID, f func(ctx context.Context, id types.ProtocolID, s interfaces.Transport) (R, error)) Negotiator[R] {
	if f == nil {
		return n.Register(id, nil)
	}
	return n.Register(id, interfaces.HandlerFunc[R](f))
}

// Role 返回协商角色
func (n Negotiator[R]) Role() types.Role {
	return n.role
}

// Protocols 按注册顺序返回协议 ID
func (n Negotiator[R]) Protocols() []types.ProtocolID {
	return ids(n.table)
}

// Finish 执行协商并调用被选中协议的处理器
//
// 先交换协议头，然后按角色分派给提议方或接受方。
// 成功时处理器被调用且只被调用一次，返回其结果；
// 失败时不会调用任何处理器，传输默认被关闭。
func (n Negotiator[R]) Finish(ctx context.Context) (R, error) {
	var zero R

	if err := n.validate(); err != nil {
		return zero, n.abort(err)
	}

	// 处理器使用调用方的上下文，协商超时不会打断它
	handlerCtx := ctx
	if n.opts.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = n.opts.clock.WithTimeout(ctx, n.opts.cfg.Timeout)
		defer cancel()
	}

	s := newSession(n.transport, n.role, n.opts)
	release := s.bind(ctx)

	chosen, err := n.negotiate(ctx, s)
	release()
	if err != nil {
		err = cancelled(ctx, err)
		s.emit(ctx, types.EventNegotiationFailed, "", err)
		return zero, n.abort(err)
	}

	return chosen.handler.Handle(handlerCtx, chosen.id, s.handoff(chosen.id))
}

// negotiate 协议头交换 + 按角色分派
func (n Negotiator[R]) negotiate(ctx context.Context, s *session) (entry[R], error) {
	if err := exchangeHeader(ctx, s); err != nil {
		return entry[R]{}, err
	}

	switch n.role {
	case types.RoleInitiator:
		table := n.table
		if s.opts.listFirst {
			remote, err := requestList(ctx, s)
			if err != nil {
				return entry[R]{}, err
			}
			table = supported(table, remote)
		}
		chosen, err := proposeAll(ctx, s, table)
		if err == nil {
			s.emit(ctx, types.EventProtocolAccepted, chosen.id, nil)
		}
		return chosen, err
	case types.RoleResponder:
		return acceptAll(ctx, s, n.table)
	default:
		return entry[R]{}, fmt.Errorf("%w: unknown role %d", ErrInvalidConfig, n.role)
	}
}

// validate 在任何 I/O 之前检查协议表和配置
func (n Negotiator[R]) validate() error {
	if n.transport == nil {
		return fmt.Errorf("%w: nil transport", ErrInvalidConfig)
	}
	if err := n.opts.cfg.Validate(); err != nil {
		return err
	}

	seen := make(map[types.ProtocolID]struct{}, len(n.table))
	for _, e := range n.table {
		if err := e.id.Validate(); err != nil {
			return fmt.Errorf("protocol %q: %w", e.id, err)
		}
		if e.id == NA || e.id == LS {
			return fmt.Errorf("%w: %s", ErrReservedProtocol, e.id)
		}
		if e.handler == nil {
			return fmt.Errorf("%w: %s", ErrNilHandler, e.id)
		}
		if _, dup := seen[e.id]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateProtocol, e.id)
		}
		seen[e.id] = struct{}{}
	}
	return nil
}

// abort 失败时释放传输
func (n Negotiator[R]) abort(err error) error {
	if n.opts.keepOnError || n.transport == nil {
		return err
	}
	if c, ok := n.transport.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil && !errors.Is(cerr, io.ErrClosedPipe) && !errors.Is(cerr, net.ErrClosed) {
			err = multierr.Append(err, fmt.Errorf("close transport: %w", cerr))
		}
	}
	return err
}

// cancelled 上下文结束导致的失败报告为上下文错误
func cancelled(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return fmt.Errorf("multistream: negotiation interrupted: %w", multierr.Append(ctxErr, err))
	}
	return err
}

// ids 提取协议 ID
func ids[R any](table []entry[R]) []types.ProtocolID {
	out := make([]types.ProtocolID, len(table))
	for i, e := range table {
		out[i] = e.id
	}
	return out
}

// ============================================================================
//                              便捷函数
// ============================================================================

// selection 便捷函数的协商结果
type selection struct {
	id     types.ProtocolID
	stream *Stream
}

func selectHandler(_ context.Context, id types.ProtocolID, s interfaces.Transport) (selection, error) {
	return selection{id: id, stream: s.(*Stream)}, nil
}

// SelectOneOf 作为发起方按顺序提议 protocols，返回被接受的协议和协商完成的流
func SelectOneOf(ctx context.Context, t interfaces.Transport, protocols []types.ProtocolID, opts ...Option) (types.ProtocolID, *Stream, error) {
	n := Start[selection](t, types.RoleInitiator, opts...)
	for _, p := range protocols {
		n = n.RegisterFunc(p, selectHandler)
	}
	sel, err := n.Finish(ctx)
	return sel.id, sel.stream, err
}

// Accept 作为响应方等待对方请求 protocols 中的某一个
func Accept(ctx context.Context, t interfaces.Transport, protocols []types.ProtocolID, opts ...Option) (types.ProtocolID, *Stream, error) {
	n := Start[selection](t, types.RoleResponder, opts...)
	for _, p := range protocols {
		n = n.RegisterFunc(p, selectHandler)
	}
	sel, err := n.Finish(ctx)
	return sel.id, sel.stream, err
}
