package metrics

import (
	"io"

	"github.com/dep2p/go-mss/pkg/types"
)

// MeteredStream 统计读写字节数的流包装
type MeteredStream struct {
	io.ReadWriter
	proto    types.ProtocolID
	reporter Reporter
	sink     *Collector
}

// Meter 包装协商完成的流
//
// reporter 和 collector 都可以为 nil。
func Meter(s io.ReadWriter, proto types.ProtocolID, reporter Reporter, collector *Collector) *MeteredStream {
	return &MeteredStream{ReadWriter: s, proto: proto, reporter: reporter, sink: collector}
}

// Read 实现 io.Reader
func (m *MeteredStream) Read(p []byte) (int, error) {
	n, err := m.ReadWriter.Read(p)
	if n > 0 {
		if m.reporter != nil {
			m.reporter.LogRecvMessage(int64(n), m.proto)
		}
		if m.sink != nil {
			m.sink.AddBytes(m.proto, int64(n), 0)
		}
	}
	return n, err
}

// Write 实现 io.Writer
func (m *MeteredStream) Write(p []byte) (int, error) {
	n, err := m.ReadWriter.Write(p)
	if n > 0 {
		if m.reporter != nil {
			m.reporter.LogSentMessage(int64(n), m.proto)
		}
		if m.sink != nil {
			m.sink.AddBytes(m.proto, 0, int64(n))
		}
	}
	return n, err
}

// Close 关闭底层流（若支持）
func (m *MeteredStream) Close() error {
	if c, ok := m.ReadWriter.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Protocol 返回流的协议
func (m *MeteredStream) Protocol() types.ProtocolID {
	return m.proto
}
