package multistream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dep2p/go-mss/pkg/interfaces"
	"github.com/dep2p/go-mss/pkg/lib/msgio"
	"github.com/dep2p/go-mss/pkg/types"
)

// aLongTimeAgo 已过去的时间点，设为截止时间可以立即打断阻塞的读写
var aLongTimeAgo = time.Unix(1, 0)

// session 单次协商的运行状态
//
// session 在协商期间独占传输；交接后不再进行任何 I/O。
type session struct {
	id    string
	role  types.Role
	t     interfaces.Transport
	rd    *msgio.Reader
	opts  settings
	start time.Time

	// 上下文取消与交接之间的互斥
	mu         sync.Mutex
	handedOff  bool
	interrupts int
}

func newSession(t interfaces.Transport, role types.Role, opts settings) *session {
	return &session{
		id:    uuid.NewString(),
		role:  role,
		t:     t,
		rd:    msgio.NewReader(t, opts.cfg.MaxMessageSize),
		opts:  opts,
		start: opts.clock.Now(),
	}
}

// emit 发送协商事件
func (s *session) emit(ctx context.Context, name types.EventName, id types.ProtocolID, err error) {
	s.opts.sink.HandleEvent(ctx, types.NegotiationEvent{
		Name:     name,
		Session:  s.id,
		Role:     s.role,
		Protocol: id,
		Err:      err,
		Elapsed:  s.opts.clock.Since(s.start),
	})
}

// write 写出一帧，返回时整帧已交给传输
func (s *session) write(msg []byte) error {
	if len(msg)+1 > s.opts.cfg.MaxMessageSize {
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, len(msg)+1, s.opts.cfg.MaxMessageSize)
	}
	return msgio.WriteMessage(s.t, msg)
}

// read 读取一帧；对方在帧边界关闭时返回 io.EOF
func (s *session) read() ([]byte, error) {
	return s.rd.ReadMessage()
}

// readText 读取一帧并校验为 UTF-8 文本
func (s *session) readText() (string, error) {
	msg, err := s.read()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(msg) {
		return "", ErrInvalidEncoding
	}
	return string(msg), nil
}

// handoff 结束协商，构造交给 Handler 的流
func (s *session) handoff(id types.ProtocolID) *Stream {
	return newStream(id, s.t, s.rd.Buffered())
}

// bind 将上下文取消映射为传输层中断
//
// 传输支持截止时间时设置一个过去的截止时间，否则关闭传输。
// 返回的 release 必须在交接前调用，调用后不会再触碰传输。
func (s *session) bind(ctx context.Context) (release func()) {
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.handedOff {
			return
		}
		s.interrupts++
		if d, ok := s.t.(interfaces.DeadlineTransport); ok {
			_ = d.SetDeadline(aLongTimeAgo)
			return
		}
		if c, ok := s.t.(io.Closer); ok {
			_ = c.Close()
		}
	})

	return func() {
		stop()
		s.mu.Lock()
		defer s.mu.Unlock()
		s.handedOff = true
		if s.interrupts > 0 {
			if d, ok := s.t.(interfaces.DeadlineTransport); ok {
				_ = d.SetDeadline(time.Time{})
			}
		}
	}
}

// peerClosed 将帧边界上的 EOF 转换为 ErrPeerClosed
func peerClosed(err error, phase string) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s", ErrPeerClosed, phase)
	}
	return err
}
