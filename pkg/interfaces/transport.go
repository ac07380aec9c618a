package interfaces

import (
	"io"
	"time"
)

// Transport 协商所运行的双向字节流
//
// 可以是 TCP 连接，也可以是多路复用器中的子流。
// 协商期间 Transport 被协商器独占，交接后归 Handler 独占。
type Transport interface {
	io.Reader
	io.Writer
}

// DeadlineTransport 支持截止时间的传输（例如 net.Conn）
//
// 协商器使用它来实现上下文取消和超时。
type DeadlineTransport interface {
	Transport
	SetDeadline(t time.Time) error
}
