// Package echo 实现 /mss/echo/1.0.0 回显协议
//
// 协商完成后双方以 msgio 帧交换消息：客户端每发送一帧，服务端原样回一帧，
// 直到客户端关闭流。
package echo

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dep2p/go-mss/pkg/interfaces"
	"github.com/dep2p/go-mss/pkg/lib/log"
	"github.com/dep2p/go-mss/pkg/lib/msgio"
	"github.com/dep2p/go-mss/pkg/types"
)

var logger = log.Logger("protocol/echo")

// ID 回显协议 ID
const ID = types.EchoProtocol

// ErrEmptyMessage 不允许发送空消息
var ErrEmptyMessage = errors.New("echo: empty message")

// Serve 服务端：逐帧回显直到对方关闭，返回回显的帧数
//
// ctx 结束时关闭流以打断阻塞的读。
func Serve(ctx context.Context, s interfaces.Transport) (int, error) {
	stop := context.AfterFunc(ctx, func() {
		if c, ok := s.(io.Closer); ok {
			_ = c.Close()
		}
	})
	defer stop()

	rd := msgio.NewReader(s, 0)
	n := 0
	for {
		msg, err := rd.ReadMessage()
		if errors.Is(err, io.EOF) {
			logger.Debug("回显结束", "frames", n)
			return n, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return n, ctx.Err()
			}
			return n, fmt.Errorf("echo: read: %w", err)
		}
		if err := msgio.WriteMessage(s, msg); err != nil {
			return n, fmt.Errorf("echo: write: %w", err)
		}
		n++
	}
}

// Handler 返回回显协议处理器
func Handler() interfaces.HandlerFunc[int] {
	return func(ctx context.Context, _ types.ProtocolID, s interfaces.Transport) (int, error) {
		return Serve(ctx, s)
	}
}

// Client 客户端
type Client struct {
	s  interfaces.Transport
	rd *msgio.Reader
}

// NewClient 在协商完成的流上创建客户端
func NewClient(s interfaces.Transport) *Client {
	return &Client{s: s, rd: msgio.NewReader(s, 0)}
}

// Call 发送一条消息并等待回显
func (c *Client) Call(msg []byte) ([]byte, error) {
	if len(msg) == 0 {
		return nil, ErrEmptyMessage
	}
	if err := msgio.WriteMessage(c.s, msg); err != nil {
		return nil, fmt.Errorf("echo: write: %w", err)
	}
	reply, err := c.rd.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("echo: read reply: %w", err)
	}
	return reply, nil
}

// Close 关闭底层流
func (c *Client) Close() error {
	if closer, ok := c.s.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
