// Package msgio 实现 multistream-select 的消息分帧
//
// 帧格式：
//
//	frame := uvarint(len(payload)+1) payload '\n'
//
// 长度字段包含结尾的换行符，换行符是分帧产物而不是消息内容：
// 编码时追加，解码时校验并剥离。
package msgio

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/multiformats/go-varint"
)

const (
	// DefaultMaxMessageSize 默认最大帧长度（含换行符）
	DefaultMaxMessageSize = 64 * 1024

	terminator = '\n'
)

// 分帧错误
var (
	// ErrMalformedFrame 帧长度已满足但结尾不是换行符，或长度前缀非法
	ErrMalformedFrame = errors.New("msgio: malformed frame")

	// ErrMessageTooLarge 帧长度超过上限
	ErrMessageTooLarge = errors.New("msgio: message too large")
)

// ============================================================================
//                              编码
// ============================================================================

// EncodeMessage 将消息编码为一个完整的帧
func EncodeMessage(msg []byte) []byte {
	size := uint64(len(msg) + 1)
	buf := make([]byte, 0, varint.UvarintSize(size)+len(msg)+1)
	buf = append(buf, varint.ToUvarint(size)...)
	buf = append(buf, msg...)
	return append(buf, terminator)
}

// WriteMessage 将消息作为一个帧写入 w
//
// 整个帧通过一次 Write 调用写出，避免在流上产生半帧。
func WriteMessage(w io.Writer, msg []byte) error {
	_, err := w.Write(EncodeMessage(msg))
	return err
}

// ============================================================================
//                              解码
// ============================================================================

// DecodeMessage 从 buf 头部解码一个帧
//
// 返回剥离换行符后的消息和该帧占用的字节数。
// buf 不足一个完整帧时返回 io.ErrUnexpectedEOF。
func DecodeMessage(buf []byte) ([]byte, int, error) {
	if len(buf) == 0 {
		return nil, 0, io.ErrUnexpectedEOF
	}
	size, n, err := varint.FromUvarint(buf)
	if err != nil {
		if errors.Is(err, varint.ErrUnderflow) {
			return nil, 0, io.ErrUnexpectedEOF
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if size == 0 {
		return nil, 0, fmt.Errorf("%w: zero length", ErrMalformedFrame)
	}
	if uint64(len(buf)-n) < size {
		return nil, 0, io.ErrUnexpectedEOF
	}
	end := n + int(size)
	frame := buf[n:end]
	if frame[len(frame)-1] != terminator {
		return nil, 0, fmt.Errorf("%w: message did not end with '\\n'", ErrMalformedFrame)
	}
	return frame[:len(frame)-1], end, nil
}

// Reader 从字节流中逐帧读取消息
//
// Reader 内部带缓冲，可能读入下一帧之后的字节；
// 交接流时必须通过 Buffered 取出这些字节，否则会丢数据。
type Reader struct {
	br      *bufio.Reader
	maxSize int
}

// NewReader 创建 Reader
//
// maxSize <= 0 时使用 DefaultMaxMessageSize。
func NewReader(r io.Reader, maxSize int) *Reader {
	if maxSize <= 0 {
		maxSize = DefaultMaxMessageSize
	}
	return &Reader{
		br:      bufio.NewReader(r),
		maxSize: maxSize,
	}
}

// ReadMessage 读取下一条消息
//
// 对方在发送任何长度前缀字节之前关闭流时返回 io.EOF；
// 帧读到一半时流结束返回 io.ErrUnexpectedEOF。
func (r *Reader) ReadMessage() ([]byte, error) {
	size, err := varint.ReadUvarint(r.br)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, err
		}
		if errors.Is(err, varint.ErrOverflow) || errors.Is(err, varint.ErrNotMinimal) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		return nil, err
	}
	if size == 0 {
		return nil, fmt.Errorf("%w: zero length", ErrMalformedFrame)
	}
	if size > uint64(r.maxSize) {
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, size, r.maxSize)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if buf[size-1] != terminator {
		return nil, fmt.Errorf("%w: message did not end with '\\n'", ErrMalformedFrame)
	}
	return buf[:size-1], nil
}

// Buffered 返回已读入缓冲区但尚未消费的字节副本
func (r *Reader) Buffered() []byte {
	n := r.br.Buffered()
	if n == 0 {
		return nil
	}
	b, _ := r.br.Peek(n)
	out := make([]byte, n)
	copy(out, b)
	return out
}

// MaxSize 返回帧长度上限
func (r *Reader) MaxSize() int {
	return r.maxSize
}
