package yamux

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/yamux"
)

// Stream 封装 yamux.Stream
//
// 关闭时从所属 Muxer 的流表中移除。
type Stream struct {
	stream  *yamux.Stream
	id      uint32
	closed  atomic.Bool
	onClose func(id uint32)
}

func newStream(s *yamux.Stream, onClose func(uint32)) *Stream {
	return &Stream{
		stream:  s,
		id:      s.StreamID(),
		onClose: onClose,
	}
}

// Read 从流中读取数据
func (s *Stream) Read(p []byte) (int, error) {
	return s.stream.Read(p)
}

// Write 向流写入数据
func (s *Stream) Write(p []byte) (int, error) {
	return s.stream.Write(p)
}

// Close 关闭流
func (s *Stream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil // 已经关闭
	}
	if s.onClose != nil {
		s.onClose(s.id)
	}
	return s.stream.Close()
}

// ID 返回流 ID
func (s *Stream) ID() uint32 {
	return s.id
}

// SetDeadline 设置读写超时
//
// 协商时上下文取消通过它打断阻塞的读写。
func (s *Stream) SetDeadline(t time.Time) error {
	return s.stream.SetDeadline(t)
}

// SetReadDeadline 设置读超时
func (s *Stream) SetReadDeadline(t time.Time) error {
	return s.stream.SetReadDeadline(t)
}

// SetWriteDeadline 设置写超时
func (s *Stream) SetWriteDeadline(t time.Time) error {
	return s.stream.SetWriteDeadline(t)
}

// IsClosed 检查流是否已关闭
func (s *Stream) IsClosed() bool {
	return s.closed.Load()
}
