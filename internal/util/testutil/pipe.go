// Package testutil 提供测试辅助工具
//
// Pipe 是内存中的双向流：写入永不阻塞（带无界缓冲），
// 支持截止时间和半关闭语义，行为接近 TCP 连接。
// net.Pipe 是同步的，双方同时先写后读会死锁，因此不适用于协议头交换。
package testutil

import (
	"bytes"
	"io"
	"net"
	"os"
	"sync"
	"time"
)

// buffer 单向缓冲
type buffer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	data   bytes.Buffer
	closed bool
}

func newBuffer() *buffer {
	b := &buffer{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *buffer) write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, io.ErrClosedPipe
	}
	n, _ := b.data.Write(p)
	b.cond.Broadcast()
	return n, nil
}

func (b *buffer) close() {
	b.mu.Lock()
	b.closed = true
	b.cond.Broadcast()
	b.mu.Unlock()
}

func (b *buffer) wake() {
	b.mu.Lock()
	b.cond.Broadcast()
	b.mu.Unlock()
}

// Conn Pipe 的一端
type Conn struct {
	in  *buffer
	out *buffer

	mu       sync.Mutex
	deadline time.Time
	timer    *time.Timer
	closed   bool

	sentMu sync.Mutex
	sent   bytes.Buffer
}

// Pipe 创建一对相连的 Conn
func Pipe() (*Conn, *Conn) {
	ab, ba := newBuffer(), newBuffer()
	return &Conn{in: ba, out: ab}, &Conn{in: ab, out: ba}
}

// Read 实现 io.Reader
func (c *Conn) Read(p []byte) (int, error) {
	c.in.mu.Lock()
	defer c.in.mu.Unlock()
	for {
		if c.isClosed() {
			return 0, io.ErrClosedPipe
		}
		if c.in.data.Len() > 0 {
			return c.in.data.Read(p)
		}
		if c.in.closed {
			return 0, io.EOF
		}
		if c.expired() {
			return 0, os.ErrDeadlineExceeded
		}
		c.in.cond.Wait()
	}
}

// Write 实现 io.Writer
func (c *Conn) Write(p []byte) (int, error) {
	if c.isClosed() {
		return 0, io.ErrClosedPipe
	}
	if c.expired() {
		return 0, os.ErrDeadlineExceeded
	}
	n, err := c.out.write(p)
	c.sentMu.Lock()
	c.sent.Write(p[:n])
	c.sentMu.Unlock()
	return n, err
}

// Close 关闭本端：对端读完剩余数据后得到 io.EOF
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return net.ErrClosed
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()

	c.out.close()
	c.in.wake()
	return nil
}

// CloseWrite 半关闭：对端读到 io.EOF，本端仍可读
func (c *Conn) CloseWrite() error {
	c.out.close()
	return nil
}

// SetDeadline 设置读写截止时间
func (c *Conn) SetDeadline(t time.Time) error {
	c.mu.Lock()
	c.deadline = t
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if !t.IsZero() {
		c.timer = time.AfterFunc(time.Until(t), c.in.wake)
	}
	c.mu.Unlock()

	c.in.wake()
	return nil
}

// Sent 返回本端写出的全部字节
func (c *Conn) Sent() []byte {
	c.sentMu.Lock()
	defer c.sentMu.Unlock()
	return bytes.Clone(c.sent.Bytes())
}

func (c *Conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.deadline.IsZero() && !time.Now().Before(c.deadline)
}
