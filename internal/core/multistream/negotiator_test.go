package multistream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-mss/internal/util/testutil"
	"github.com/dep2p/go-mss/pkg/interfaces"
	"github.com/dep2p/go-mss/pkg/lib/msgio"
	"github.com/dep2p/go-mss/pkg/types"
)

const (
	protoA types.ProtocolID = "/a/1.0.0"
	protoB types.ProtocolID = "/b/1.0.0"
	protoC types.ProtocolID = "/c/1.0.0"
)

// ============================================================================
//                              测试辅助
// ============================================================================

type result[R any] struct {
	v   R
	err error
}

func finishAsync[R any](ctx context.Context, n Negotiator[R]) <-chan result[R] {
	ch := make(chan result[R], 1)
	go func() {
		v, err := n.Finish(ctx)
		ch <- result[R]{v: v, err: err}
	}()
	return ch
}

func await[R any](t *testing.T, ch <-chan result[R]) result[R] {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("negotiation did not finish")
		return result[R]{}
	}
}

// header 协议头的文本形式
const header = string(MultistreamID)

// frames 将消息编码为连续的帧
func frames(msgs ...string) []byte {
	var buf []byte
	for _, m := range msgs {
		buf = append(buf, msgio.EncodeMessage([]byte(m))...)
	}
	return buf
}

// peer 手写脚本的对端
type peer struct {
	t    *testing.T
	conn *testutil.Conn
	rd   *msgio.Reader
}

func newPeer(t *testing.T, conn *testutil.Conn) *peer {
	return &peer{t: t, conn: conn, rd: msgio.NewReader(conn, 0)}
}

func (p *peer) send(msgs ...string) {
	p.t.Helper()
	_, err := p.conn.Write(frames(msgs...))
	require.NoError(p.t, err)
}

func (p *peer) expect(want string) {
	p.t.Helper()
	msg, err := p.rd.ReadMessage()
	require.NoError(p.t, err)
	assert.Equal(p.t, want, string(msg))
}

// returnID 返回被选中协议 ID 的处理器
func returnID(_ context.Context, id types.ProtocolID, _ interfaces.Transport) (types.ProtocolID, error) {
	return id, nil
}

// recorder 记录协商事件
type recorder struct {
	mu     sync.Mutex
	events []types.NegotiationEvent
}

func (r *recorder) HandleEvent(_ context.Context, ev types.NegotiationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) names() []types.EventName {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.EventName, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Name
	}
	return out
}

func (r *recorder) sessions() map[string]struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]struct{})
	for _, ev := range r.events {
		out[ev.Session] = struct{}{}
	}
	return out
}

// ============================================================================
//                              端到端
// ============================================================================

// TestFinish_EndToEnd 测试双方都使用 Negotiator 的完整协商
func TestFinish_EndToEnd(t *testing.T) {
	a, b := testutil.Pipe()
	ctx := context.Background()

	initEvents, respEvents := &recorder{}, &recorder{}

	initiator := Start[string](a, types.RoleInitiator, WithEventSink(initEvents)).
		RegisterFunc(protoA, func(context.Context, types.ProtocolID, interfaces.Transport) (string, error) {
			return "", fmt.Errorf("protocol A must not be selected")
		}).
		RegisterFunc(protoB, func(_ context.Context, _ types.ProtocolID, s interfaces.Transport) (string, error) {
			if _, err := s.Write([]byte("ping")); err != nil {
				return "", err
			}
			buf := make([]byte, 4)
			_, err := io.ReadFull(s, buf)
			return string(buf), err
		})

	responder := Start[string](b, types.RoleResponder, WithEventSink(respEvents)).
		RegisterFunc(protoC, func(context.Context, types.ProtocolID, interfaces.Transport) (string, error) {
			return "", fmt.Errorf("protocol C must not be selected")
		}).
		RegisterFunc(protoB, func(_ context.Context, _ types.ProtocolID, s interfaces.Transport) (string, error) {
			buf := make([]byte, 4)
			if _, err := io.ReadFull(s, buf); err != nil {
				return "", err
			}
			_, err := s.Write([]byte("pong"))
			return string(buf), err
		})

	initRes := finishAsync(ctx, initiator)
	respRes := finishAsync(ctx, responder)

	ir, rr := await(t, initRes), await(t, respRes)
	require.NoError(t, ir.err)
	require.NoError(t, rr.err)
	assert.Equal(t, "pong", ir.v)
	assert.Equal(t, "ping", rr.v)

	assert.Equal(t, string(frames(header, string(protoA), string(protoB)))+"ping", string(a.Sent()))
	assert.Equal(t, string(frames(header, NA, string(protoB)))+"pong", string(b.Sent()))

	assert.Equal(t, []types.EventName{
		types.EventHeaderOK,
		types.EventProtocolProposed,
		types.EventProtocolDenied,
		types.EventProtocolProposed,
		types.EventProtocolAccepted,
	}, initEvents.names())
	assert.Equal(t, []types.EventName{
		types.EventHeaderOK,
		types.EventProtocolDenied,
		types.EventProtocolAccepted,
	}, respEvents.names())
	assert.Len(t, initEvents.sessions(), 1, "同一次协商共享会话 ID")

	t.Log("✅ 端到端协商成功")
}

// TestFinish_HeaderMismatch 测试协议头不一致时不发出任何提议
func TestFinish_HeaderMismatch(t *testing.T) {
	a, b := testutil.Pipe()
	p := newPeer(t, b)
	p.send("/multistream/2.0.0")

	events := &recorder{}
	var called atomic.Bool
	_, err := Start[types.ProtocolID](a, types.RoleInitiator, WithEventSink(events)).
		RegisterFunc(protoA, func(ctx context.Context, id types.ProtocolID, s interfaces.Transport) (types.ProtocolID, error) {
			called.Store(true)
			return id, nil
		}).
		Finish(context.Background())

	require.ErrorIs(t, err, ErrUnknownHeaderVersion)
	assert.False(t, called.Load())
	assert.Equal(t, frames(header), a.Sent(), "只发送了协议头")
	assert.Equal(t, []types.EventName{types.EventHeaderMismatch, types.EventNegotiationFailed}, events.names())

	_, werr := a.Write([]byte("x"))
	assert.ErrorIs(t, werr, io.ErrClosedPipe, "失败后传输被关闭")
}

// TestFinish_HeaderInvalidEncoding 测试协议头不是 UTF-8
func TestFinish_HeaderInvalidEncoding(t *testing.T) {
	for _, role := range []types.Role{types.RoleInitiator, types.RoleResponder} {
		t.Run(role.String(), func(t *testing.T) {
			a, b := testutil.Pipe()
			_, err := b.Write(msgio.EncodeMessage([]byte{0xff, 0xfe}))
			require.NoError(t, err)

			_, err = Start[types.ProtocolID](a, role).RegisterFunc(protoA, returnID).Finish(context.Background())
			assert.ErrorIs(t, err, ErrInvalidEncoding)
		})
	}
}

// TestFinish_ProposesSequentially 测试发起方在收到响应前不发出下一个提议
func TestFinish_ProposesSequentially(t *testing.T) {
	a, b := testutil.Pipe()
	p := newPeer(t, b)

	res := finishAsync(context.Background(),
		Start[types.ProtocolID](a, types.RoleInitiator).
			RegisterFunc(protoA, returnID).
			RegisterFunc(protoB, returnID).
			RegisterFunc(protoC, returnID))

	p.send(header)
	p.expect(header)
	p.expect(string(protoA))
	assert.NotContains(t, string(a.Sent()), string(protoB), "收到响应前不得发出第二个提议")

	p.send(NA)
	p.expect(string(protoB))
	p.send(string(protoB))

	r := await(t, res)
	require.NoError(t, r.err)
	assert.Equal(t, protoB, r.v)
	assert.NotContains(t, string(a.Sent()), string(protoC))
}

// TestFinish_Exhausted 测试全部被拒绝
func TestFinish_Exhausted(t *testing.T) {
	a, b := testutil.Pipe()
	p := newPeer(t, b)

	res := finishAsync(context.Background(),
		Start[types.ProtocolID](a, types.RoleInitiator).RegisterFunc(protoA, returnID))

	p.send(header)
	p.expect(header)
	p.expect(string(protoA))
	p.send(NA)

	r := await(t, res)
	assert.ErrorIs(t, r.err, ErrNoProtocolNegotiated)
	assert.Equal(t, frames(header, string(protoA)), a.Sent())
}

// TestFinish_EmptyTable 测试空协议表
func TestFinish_EmptyTable(t *testing.T) {
	t.Run("发起方", func(t *testing.T) {
		a, b := testutil.Pipe()
		newPeer(t, b).send(header)

		_, err := Start[int](a, types.RoleInitiator).Finish(context.Background())
		assert.ErrorIs(t, err, ErrNoProtocolNegotiated)
		assert.Equal(t, frames(header), a.Sent())
	})

	t.Run("响应方拒绝一切", func(t *testing.T) {
		a, b := testutil.Pipe()
		p := newPeer(t, b)

		res := finishAsync(context.Background(), Start[int](a, types.RoleResponder))
		p.send(header, string(protoA))
		p.expect(header)
		p.expect(NA)
		require.NoError(t, b.Close())

		assert.ErrorIs(t, await(t, res).err, ErrPeerClosed)
	})
}

// TestFinish_UnexpectedResponse 测试响应既不是回显也不是 "na"
func TestFinish_UnexpectedResponse(t *testing.T) {
	a, b := testutil.Pipe()
	p := newPeer(t, b)

	res := finishAsync(context.Background(),
		Start[types.ProtocolID](a, types.RoleInitiator).RegisterFunc(protoA, returnID))

	p.send(header)
	p.expect(header)
	p.expect(string(protoA))
	p.send(string(protoB))

	assert.ErrorIs(t, await(t, res).err, ErrUnexpectedResponse)
}

// TestFinish_KeepsTrailingBytes 测试协商阶段读入缓冲的字节交给处理器
func TestFinish_KeepsTrailingBytes(t *testing.T) {
	a, b := testutil.Pipe()

	var wire []byte
	wire = append(wire, frames(header, "/x/1.0.0", string(protoA))...)
	wire = append(wire, "hello world"...)
	_, err := b.Write(wire)
	require.NoError(t, err)
	require.NoError(t, b.CloseWrite())

	got, err := Start[string](a, types.RoleResponder).
		RegisterFunc(protoA, func(_ context.Context, _ types.ProtocolID, s interfaces.Transport) (string, error) {
			data, err := io.ReadAll(s)
			return string(data), err
		}).
		Finish(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, frames(header, NA, string(protoA)), a.Sent())
}

// TestFinish_PeerClosed 测试对方在应发送消息时关闭
func TestFinish_PeerClosed(t *testing.T) {
	tests := []struct {
		name   string
		role   types.Role
		script []string
	}{
		{"发起方-协议头前", types.RoleInitiator, nil},
		{"发起方-协议头后", types.RoleInitiator, []string{header}},
		{"响应方-协议头前", types.RoleResponder, nil},
		{"响应方-协议头后", types.RoleResponder, []string{header}},
		{"响应方-拒绝后", types.RoleResponder, []string{header, "/x/1.0.0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := testutil.Pipe()
			if len(tt.script) > 0 {
				newPeer(t, b).send(tt.script...)
			}
			require.NoError(t, b.Close())

			events := &recorder{}
			_, err := Start[types.ProtocolID](a, tt.role, WithEventSink(events)).
				RegisterFunc(protoA, returnID).
				Finish(context.Background())

			assert.ErrorIs(t, err, ErrPeerClosed)
			assert.Contains(t, events.names(), types.EventNegotiationFailed)
		})
	}
}

// TestFinish_TruncatedFrame 测试帧读到一半对方关闭
func TestFinish_TruncatedFrame(t *testing.T) {
	a, b := testutil.Pipe()
	full := frames(header)
	_, err := b.Write(full[:len(full)-3])
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, err = Start[types.ProtocolID](a, types.RoleResponder).RegisterFunc(protoA, returnID).Finish(context.Background())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotErrorIs(t, err, ErrPeerClosed)
}

// TestFinish_MalformedFrame 测试换行符缺失
func TestFinish_MalformedFrame(t *testing.T) {
	a, b := testutil.Pipe()
	bad := frames(header)
	bad[len(bad)-1] = 'x'
	_, err := b.Write(bad)
	require.NoError(t, err)

	_, err = Start[types.ProtocolID](a, types.RoleInitiator).RegisterFunc(protoA, returnID).Finish(context.Background())
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

// TestFinish_MessageTooLarge 测试超长帧
func TestFinish_MessageTooLarge(t *testing.T) {
	a, b := testutil.Pipe()
	newPeer(t, b).send(header, "/"+strings.Repeat("x", 64))

	_, err := Start[types.ProtocolID](a, types.RoleResponder, WithMaxMessageSize(32)).
		RegisterFunc(protoA, returnID).
		Finish(context.Background())
	assert.ErrorIs(t, err, ErrMessageTooLarge)
}

// TestFinish_InvalidRequestEncoding 测试请求不是 UTF-8
func TestFinish_InvalidRequestEncoding(t *testing.T) {
	a, b := testutil.Pipe()
	newPeer(t, b).send(header)
	_, err := b.Write(msgio.EncodeMessage([]byte{0xc3, 0x28}))
	require.NoError(t, err)

	_, err = Start[types.ProtocolID](a, types.RoleResponder).RegisterFunc(protoA, returnID).Finish(context.Background())
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

// ============================================================================
//                              注册校验
// ============================================================================

// TestFinish_Validation 测试协议表在任何 I/O 之前被校验
func TestFinish_Validation(t *testing.T) {
	tests := []struct {
		name    string
		build   func(Negotiator[types.ProtocolID]) Negotiator[types.ProtocolID]
		opts    []Option
		wantErr error
	}{
		{
			name: "重复协议",
			build: func(n Negotiator[types.ProtocolID]) Negotiator[types.ProtocolID] {
				return n.RegisterFunc(protoA, returnID).RegisterFunc(protoB, returnID).RegisterFunc(protoA, returnID)
			},
			wantErr: ErrDuplicateProtocol,
		},
		{
			name: "保留的 na",
			build: func(n Negotiator[types.ProtocolID]) Negotiator[types.ProtocolID] {
				return n.RegisterFunc(NA, returnID)
			},
			wantErr: ErrReservedProtocol,
		},
		{
			name: "保留的 ls",
			build: func(n Negotiator[types.ProtocolID]) Negotiator[types.ProtocolID] {
				return n.RegisterFunc(LS, returnID)
			},
			wantErr: ErrReservedProtocol,
		},
		{
			name: "空协议 ID",
			build: func(n Negotiator[types.ProtocolID]) Negotiator[types.ProtocolID] {
				return n.RegisterFunc("", returnID)
			},
			wantErr: types.ErrEmptyProtocolID,
		},
		{
			name: "包含换行符",
			build: func(n Negotiator[types.ProtocolID]) Negotiator[types.ProtocolID] {
				return n.RegisterFunc("/a\n", returnID)
			},
			wantErr: types.ErrInvalidProtocolID,
		},
		{
			name: "空处理器",
			build: func(n Negotiator[types.ProtocolID]) Negotiator[types.ProtocolID] {
				return n.Register(protoA, nil)
			},
			wantErr: ErrNilHandler,
		},
		{
			name: "无效配置",
			build: func(n Negotiator[types.ProtocolID]) Negotiator[types.ProtocolID] {
				return n.RegisterFunc(protoA, returnID)
			},
			opts:    []Option{WithMaxMessageSize(0)},
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := testutil.Pipe()
			_, err := tt.build(Start[types.ProtocolID](a, types.RoleInitiator, tt.opts...)).Finish(context.Background())

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, a.Sent(), "校验失败时不应有任何 I/O")

			_, rerr := b.Read(make([]byte, 1))
			assert.ErrorIs(t, rerr, io.EOF, "传输被关闭")
		})
	}

	t.Run("空传输", func(t *testing.T) {
		_, err := Start[int](nil, types.RoleInitiator).Finish(context.Background())
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

// TestRegister_IsPersistent 测试 Register 不修改原 Negotiator
func TestRegister_IsPersistent(t *testing.T) {
	a, _ := testutil.Pipe()
	base := Start[types.ProtocolID](a, types.RoleInitiator).RegisterFunc(protoA, returnID)

	withB := base.RegisterFunc(protoB, returnID)
	withC := base.RegisterFunc(protoC, returnID)

	assert.Equal(t, []types.ProtocolID{protoA}, base.Protocols())
	assert.Equal(t, []types.ProtocolID{protoA, protoB}, withB.Protocols())
	assert.Equal(t, []types.ProtocolID{protoA, protoC}, withC.Protocols())
	assert.Equal(t, types.RoleInitiator, withB.Role())
}

// ============================================================================
//                              取消与超时
// ============================================================================

// TestFinish_Cancel 测试取消上下文打断阻塞的读
func TestFinish_Cancel(t *testing.T) {
	a, _ := testutil.Pipe()
	ctx, cancel := context.WithCancel(context.Background())

	var called atomic.Bool
	res := finishAsync(ctx, Start[int](a, types.RoleResponder).
		RegisterFunc(protoA, func(context.Context, types.ProtocolID, interfaces.Transport) (int, error) {
			called.Store(true)
			return 1, nil
		}))
	cancel()

	r := await(t, res)
	assert.ErrorIs(t, r.err, context.Canceled)
	assert.False(t, called.Load())

	_, err := a.Write([]byte("x"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

// TestFinish_CancelKeepTransport 测试 WithKeepOnError 时取消后传输仍可用
func TestFinish_CancelKeepTransport(t *testing.T) {
	a, b := testutil.Pipe()
	ctx, cancel := context.WithCancel(context.Background())

	res := finishAsync(ctx, Start[int](a, types.RoleResponder, WithKeepOnError()).
		RegisterFunc(protoA, func(context.Context, types.ProtocolID, interfaces.Transport) (int, error) {
			return 1, nil
		}))
	cancel()
	assert.ErrorIs(t, await(t, res).err, context.Canceled)

	_, err := b.Write([]byte("still here"))
	require.NoError(t, err)
	buf := make([]byte, 10)
	_, err = io.ReadFull(a, buf)
	require.NoError(t, err, "截止时间已被清除")
	assert.Equal(t, "still here", string(buf))
}

// TestFinish_Timeout 测试协商超时
func TestFinish_Timeout(t *testing.T) {
	a, _ := testutil.Pipe()
	mock := clock.NewMock()

	events := &recorder{}
	res := finishAsync(context.Background(),
		Start[types.ProtocolID](a, types.RoleInitiator,
			WithClock(mock), WithTimeout(5*time.Second), WithEventSink(events)).
			RegisterFunc(protoA, returnID))

	var r result[types.ProtocolID]
	require.Eventually(t, func() bool {
		mock.Add(time.Second)
		select {
		case r = <-res:
			return true
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, r.err, context.DeadlineExceeded)
	assert.Equal(t, []types.EventName{types.EventNegotiationFailed}, events.names())
}

// TestFinish_NoDefaultTimeout 测试默认配置不设协商超时
func TestFinish_NoDefaultTimeout(t *testing.T) {
	a, b := testutil.Pipe()
	p := newPeer(t, b)
	mock := clock.NewMock()

	res := finishAsync(context.Background(),
		Start[types.ProtocolID](a, types.RoleResponder, WithClock(mock)).
			RegisterFunc(protoA, returnID))

	p.expect(header)
	mock.Add(time.Hour)

	p.send(header, string(protoA))
	p.expect(string(protoA))

	r := await(t, res)
	require.NoError(t, r.err)
	assert.Equal(t, protoA, r.v)
	t.Log("✅ 时钟推进一小时后协商仍然成功")
}

// TestFinish_HandlerOutlivesTimeout 测试协商超时不影响处理器
func TestFinish_HandlerOutlivesTimeout(t *testing.T) {
	a, b := testutil.Pipe()
	mock := clock.NewMock()

	responder := finishAsync(context.Background(),
		Start[types.ProtocolID](b, types.RoleResponder).RegisterFunc(protoA, returnID))

	got, err := Start[error](a, types.RoleInitiator, WithClock(mock), WithTimeout(time.Second)).
		RegisterFunc(protoA, func(ctx context.Context, _ types.ProtocolID, s interfaces.Transport) (error, error) {
			mock.Add(time.Minute)
			if _, err := s.Write([]byte("after")); err != nil {
				return nil, err
			}
			return ctx.Err(), nil
		}).
		Finish(context.Background())

	require.NoError(t, err)
	assert.NoError(t, got)
	require.NoError(t, await(t, responder).err)
	assert.True(t, bytes.HasSuffix(a.Sent(), []byte("after")))
}

// ============================================================================
//                              随机协商
// ============================================================================

// TestFinish_Randomized 测试处理器在每次协商中恰好被调用一次
func TestFinish_Randomized(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	universe := make([]types.ProtocolID, 8)
	for i := range universe {
		universe[i] = types.ProtocolID(fmt.Sprintf("/p%d/1.0.0", i))
	}

	pick := func() []types.ProtocolID {
		perm := rng.Perm(len(universe))
		n := 1 + rng.Intn(4)
		out := make([]types.ProtocolID, n)
		for i := range out {
			out[i] = universe[perm[i]]
		}
		return out
	}

	for round := 0; round < 100; round++ {
		proposals, supported := pick(), pick()

		var want types.ProtocolID
		for _, p := range proposals {
			if indexOfID(supported, p) >= 0 {
				want = p
				break
			}
		}

		var initCalls, respCalls sync.Map
		counting := func(calls *sync.Map) func(context.Context, types.ProtocolID, interfaces.Transport) (types.ProtocolID, error) {
			return func(_ context.Context, id types.ProtocolID, _ interfaces.Transport) (types.ProtocolID, error) {
				n, _ := calls.LoadOrStore(id, new(atomic.Int32))
				n.(*atomic.Int32).Add(1)
				return id, nil
			}
		}

		a, b := testutil.Pipe()
		initiator := Start[types.ProtocolID](a, types.RoleInitiator)
		for _, p := range proposals {
			initiator = initiator.RegisterFunc(p, counting(&initCalls))
		}
		responder := Start[types.ProtocolID](b, types.RoleResponder)
		for _, p := range supported {
			responder = responder.RegisterFunc(p, counting(&respCalls))
		}

		ir := finishAsync(context.Background(), initiator)
		rr := finishAsync(context.Background(), responder)
		iRes, rRes := await(t, ir), await(t, rr)

		if want.IsEmpty() {
			assert.ErrorIs(t, iRes.err, ErrNoProtocolNegotiated, "round %d", round)
			assert.ErrorIs(t, rRes.err, ErrPeerClosed, "round %d", round)
			assert.Zero(t, countCalls(&initCalls), "round %d", round)
			assert.Zero(t, countCalls(&respCalls), "round %d", round)
			continue
		}

		require.NoError(t, iRes.err, "round %d", round)
		require.NoError(t, rRes.err, "round %d", round)
		assert.Equal(t, want, iRes.v, "round %d", round)
		assert.Equal(t, want, rRes.v, "round %d", round)
		assert.Equal(t, 1, countCalls(&initCalls), "round %d", round)
		assert.Equal(t, 1, countCalls(&respCalls), "round %d", round)
	}
}

func indexOfID(ids []types.ProtocolID, id types.ProtocolID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func countCalls(m *sync.Map) int {
	total := 0
	m.Range(func(_, v any) bool {
		total += int(v.(*atomic.Int32).Load())
		return true
	})
	return total
}

// ============================================================================
//                              便捷函数与 ls
// ============================================================================

// TestSelectOneOf_Accept 测试便捷函数
func TestSelectOneOf_Accept(t *testing.T) {
	a, b := testutil.Pipe()
	ctx := context.Background()

	type accepted struct {
		id     types.ProtocolID
		stream *Stream
		err    error
	}
	ch := make(chan accepted, 1)
	go func() {
		id, s, err := Accept(ctx, b, []types.ProtocolID{protoB, protoC})
		ch <- accepted{id, s, err}
	}()

	id, s, err := SelectOneOf(ctx, a, []types.ProtocolID{protoA, protoC})
	require.NoError(t, err)
	assert.Equal(t, protoC, id)
	assert.Equal(t, protoC, s.Protocol())
	_, err = s.Write([]byte("data"))
	require.NoError(t, err)

	var got accepted
	select {
	case got = <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("accept did not finish")
	}
	require.NoError(t, got.err)
	assert.Equal(t, protoC, got.id)

	buf := make([]byte, 4)
	_, err = io.ReadFull(got.stream, buf)
	require.NoError(t, err)
	assert.Equal(t, "data", string(buf))
}

// TestListRemote 测试列出对方协议
func TestListRemote(t *testing.T) {
	a, b := testutil.Pipe()

	res := finishAsync(context.Background(),
		Start[types.ProtocolID](b, types.RoleResponder).
			RegisterFunc(protoA, returnID).
			RegisterFunc(protoB, returnID))

	listed, err := ListRemote(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, []types.ProtocolID{protoA, protoB}, listed)

	require.NoError(t, a.Close())
	assert.ErrorIs(t, await(t, res).err, ErrPeerClosed)
}

// TestListThenSelect 测试 ls 之后继续协商
func TestListThenSelect(t *testing.T) {
	a, b := testutil.Pipe()
	p := newPeer(t, b)

	events := &recorder{}
	res := finishAsync(context.Background(),
		Start[types.ProtocolID](a, types.RoleResponder, WithEventSink(events)).
			RegisterFunc(protoA, returnID).
			RegisterFunc(protoB, returnID))

	p.send(header, LS)
	p.expect(header)
	p.expect(string(encodeProtocolList([]types.ProtocolID{protoA, protoB})))
	p.send(string(protoB))
	p.expect(string(protoB))

	r := await(t, res)
	require.NoError(t, r.err)
	assert.Equal(t, protoB, r.v)
	assert.Equal(t, []types.EventName{
		types.EventHeaderOK,
		types.EventListRequested,
		types.EventProtocolAccepted,
	}, events.names())
}

// TestListRemote_Rejected 测试响应方拒绝 ls
func TestListRemote_Rejected(t *testing.T) {
	a, b := testutil.Pipe()

	res := finishAsync(context.Background(),
		Start[types.ProtocolID](b, types.RoleResponder, WithListPolicy(RejectList)).
			RegisterFunc(protoA, returnID))

	_, err := ListRemote(context.Background(), a)
	assert.ErrorIs(t, err, ErrPeerClosed)
	assert.ErrorIs(t, await(t, res).err, ErrNotImplemented)
}

// TestListRemote_SessionEnds 测试 ListRemote 之后会话不能复用
func TestListRemote_SessionEnds(t *testing.T) {
	a, b := testutil.Pipe()

	responder := finishAsync(context.Background(),
		Start[types.ProtocolID](b, types.RoleResponder).
			RegisterFunc(protoA, returnID))

	_, err := ListRemote(context.Background(), a)
	require.NoError(t, err)

	// 重发的协议头被当作未知协议拒绝
	_, err = Start[types.ProtocolID](a, types.RoleInitiator).
		RegisterFunc(protoA, returnID).
		Finish(context.Background())
	assert.ErrorIs(t, err, ErrUnknownHeaderVersion)
	assert.ErrorIs(t, await(t, responder).err, ErrPeerClosed)
	t.Log("✅ ListRemote 之后应关闭传输，需要继续协商时使用 WithListFirst")
}

// TestFinish_ListFirst 测试发起方先 ls 再提议
func TestFinish_ListFirst(t *testing.T) {
	tests := []struct {
		name     string
		remote   []types.ProtocolID
		wantID   types.ProtocolID
		wantErr  error
		wantSent []byte
	}{
		{
			name:     "只提议共同支持的协议",
			remote:   []types.ProtocolID{protoC, protoB},
			wantID:   protoB,
			wantSent: frames(header, LS, string(protoB)),
		},
		{
			name:     "没有交集时不提议",
			remote:   []types.ProtocolID{protoC},
			wantErr:  ErrNoProtocolNegotiated,
			wantSent: frames(header, LS),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := testutil.Pipe()

			events := &recorder{}
			initiator := finishAsync(context.Background(),
				Start[types.ProtocolID](a, types.RoleInitiator,
					WithListFirst(), WithEventSink(events)).
					RegisterFunc(protoA, returnID).
					RegisterFunc(protoB, returnID))

			rtable := Start[types.ProtocolID](b, types.RoleResponder)
			for _, id := range tt.remote {
				rtable = rtable.RegisterFunc(id, returnID)
			}
			responder := finishAsync(context.Background(), rtable)

			r := await(t, initiator)
			if tt.wantErr != nil {
				assert.ErrorIs(t, r.err, tt.wantErr)
				assert.ErrorIs(t, await(t, responder).err, ErrPeerClosed)
			} else {
				require.NoError(t, r.err)
				assert.Equal(t, tt.wantID, r.v)
				rr := await(t, responder)
				require.NoError(t, rr.err)
				assert.Equal(t, tt.wantID, rr.v)
			}
			assert.Equal(t, tt.wantSent, a.Sent())
			assert.Contains(t, events.names(), types.EventListRequested)
		})
	}
}
