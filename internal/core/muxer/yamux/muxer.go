package yamux

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/yamux"
	"go.uber.org/multierr"

	"github.com/dep2p/go-mss/pkg/interfaces"
)

// ErrMuxerClosed 多路复用器已关闭
var ErrMuxerClosed = errors.New("yamux: muxer closed")

// Muxer 封装 yamux.Session
type Muxer struct {
	session    *yamux.Session
	isServer   bool
	closed     atomic.Bool
	numStreams atomic.Int32

	streamsMu sync.RWMutex
	streams   map[uint32]*Stream
}

// nopCloser 为不支持关闭的传输补一个空 Close
type nopCloser struct {
	interfaces.Transport
}

func (nopCloser) Close() error { return nil }

func asReadWriteCloser(t interfaces.Transport) io.ReadWriteCloser {
	if rwc, ok := t.(io.ReadWriteCloser); ok {
		return rwc
	}
	return nopCloser{t}
}

// Server 在 conn 上创建服务端会话
func Server(conn interfaces.Transport, cfg *yamux.Config) (*Muxer, error) {
	return newMuxer(conn, cfg, true)
}

// Client 在 conn 上创建客户端会话
func Client(conn interfaces.Transport, cfg *yamux.Config) (*Muxer, error) {
	return newMuxer(conn, cfg, false)
}

func newMuxer(conn interfaces.Transport, cfg *yamux.Config, isServer bool) (*Muxer, error) {
	if conn == nil {
		return nil, fmt.Errorf("连接不能为 nil")
	}
	if cfg == nil {
		cfg = DefaultYamuxConfig()
	}

	var (
		session *yamux.Session
		err     error
	)
	if isServer {
		session, err = yamux.Server(asReadWriteCloser(conn), cfg)
	} else {
		session, err = yamux.Client(asReadWriteCloser(conn), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("创建 yamux session 失败: %w", err)
	}

	return &Muxer{
		session:  session,
		isServer: isServer,
		streams:  make(map[uint32]*Stream),
	}, nil
}

// NewStream 创建新流
func (m *Muxer) NewStream(ctx context.Context) (*Stream, error) {
	if m.IsClosed() {
		return nil, ErrMuxerClosed
	}

	// yamux 的 OpenStream 不支持 context，在单独的 goroutine 中处理
	type result struct {
		stream *yamux.Stream
		err    error
	}
	resultCh := make(chan result, 1)

	go func() {
		s, err := m.session.OpenStream()
		resultCh <- result{stream: s, err: err}
	}()

	select {
	case <-ctx.Done():
		// 关闭迟到的流以防止泄漏
		go func() {
			if r := <-resultCh; r.stream != nil {
				_ = r.stream.Close()
			}
		}()
		return nil, ctx.Err()
	case r := <-resultCh:
		if r.err != nil {
			return nil, fmt.Errorf("创建流失败: %w", r.err)
		}
		return m.track(r.stream), nil
	}
}

// AcceptStream 接受新流
func (m *Muxer) AcceptStream() (*Stream, error) {
	if m.IsClosed() {
		return nil, ErrMuxerClosed
	}

	s, err := m.session.AcceptStream()
	if err != nil {
		return nil, fmt.Errorf("接受流失败: %w", err)
	}
	return m.track(s), nil
}

// Close 关闭多路复用器及其所有流
func (m *Muxer) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil // 已经关闭
	}

	m.streamsMu.Lock()
	streams := make([]*Stream, 0, len(m.streams))
	for _, s := range m.streams {
		streams = append(streams, s)
	}
	m.streamsMu.Unlock()

	var err error
	for _, s := range streams {
		if cerr := s.Close(); cerr != nil && !errors.Is(cerr, yamux.ErrSessionShutdown) {
			err = multierr.Append(err, cerr)
		}
	}
	return multierr.Append(err, m.session.Close())
}

// IsClosed 检查是否已关闭
func (m *Muxer) IsClosed() bool {
	return m.closed.Load() || m.session.IsClosed()
}

// NumStreams 返回当前打开的流数量
func (m *Muxer) NumStreams() int {
	return int(m.numStreams.Load())
}

// IsServer 返回是否是服务端
func (m *Muxer) IsServer() bool {
	return m.isServer
}

// Ping 测量会话往返时间
func (m *Muxer) Ping() (time.Duration, error) {
	if m.IsClosed() {
		return 0, ErrMuxerClosed
	}
	return m.session.Ping()
}

// track 登记新流
func (m *Muxer) track(s *yamux.Stream) *Stream {
	stream := newStream(s, m.untrack)

	m.streamsMu.Lock()
	defer m.streamsMu.Unlock()
	if _, exists := m.streams[stream.ID()]; !exists {
		m.streams[stream.ID()] = stream
		m.numStreams.Add(1)
	}
	return stream
}

// untrack 流关闭时移除
func (m *Muxer) untrack(id uint32) {
	m.streamsMu.Lock()
	defer m.streamsMu.Unlock()
	if _, ok := m.streams[id]; ok {
		delete(m.streams, id)
		m.numStreams.Add(-1)
	}
}
