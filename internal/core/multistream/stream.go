package multistream

import (
	"bytes"
	"errors"
	"io"
	"time"

	"github.com/dep2p/go-mss/pkg/interfaces"
	"github.com/dep2p/go-mss/pkg/types"
)

// ErrDeadlineUnsupported 底层传输不支持截止时间
var ErrDeadlineUnsupported = errors.New("multistream: transport does not support deadlines")

// Stream 协商完成后交给 Handler 的流
//
// 协商阶段读入缓冲区但未消费的字节会先于底层传输被读出，
// 因此交接不会丢失任何数据。
type Stream struct {
	protocol types.ProtocolID
	raw      interfaces.Transport
	r        io.Reader
}

// newStream 用剩余缓冲字节和底层传输构造 Stream
func newStream(protocol types.ProtocolID, raw interfaces.Transport, buffered []byte) *Stream {
	var r io.Reader = raw
	if len(buffered) > 0 {
		r = io.MultiReader(bytes.NewReader(buffered), raw)
	}
	return &Stream{protocol: protocol, raw: raw, r: r}
}

// Protocol 返回协商得到的协议
func (s *Stream) Protocol() types.ProtocolID {
	return s.protocol
}

// Read 实现 io.Reader
func (s *Stream) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

// Write 实现 io.Writer
func (s *Stream) Write(p []byte) (int, error) {
	return s.raw.Write(p)
}

// Close 关闭底层传输；底层不支持关闭时为空操作
func (s *Stream) Close() error {
	if c, ok := s.raw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SetDeadline 设置底层传输的截止时间
func (s *Stream) SetDeadline(t time.Time) error {
	if d, ok := s.raw.(interface{ SetDeadline(time.Time) error }); ok {
		return d.SetDeadline(t)
	}
	return ErrDeadlineUnsupported
}

// SetReadDeadline 设置底层传输的读截止时间
func (s *Stream) SetReadDeadline(t time.Time) error {
	if d, ok := s.raw.(interface{ SetReadDeadline(time.Time) error }); ok {
		return d.SetReadDeadline(t)
	}
	return ErrDeadlineUnsupported
}

// SetWriteDeadline 设置底层传输的写截止时间
func (s *Stream) SetWriteDeadline(t time.Time) error {
	if d, ok := s.raw.(interface{ SetWriteDeadline(time.Time) error }); ok {
		return d.SetWriteDeadline(t)
	}
	return ErrDeadlineUnsupported
}

// Unwrap 返回底层传输
//
// 直接读取底层传输会跳过尚未消费的缓冲字节，仅在确认没有缓冲时使用。
func (s *Stream) Unwrap() interfaces.Transport {
	return s.raw
}

var _ io.ReadWriteCloser = (*Stream)(nil)
