package interfaces

import (
	"context"

	"github.com/dep2p/go-mss/pkg/types"
)

// Handler 协议处理器
//
// 协商成功后被调用且只被调用一次，独占协商完成的流
// （包括协商阶段已读入缓冲区但尚未消费的字节）。
type Handler[R any] interface {
	Handle(ctx context.Context, id types.ProtocolID, s Transport) (R, error)
}

// HandlerFunc 函数形式的 Handler
type HandlerFunc[R any] func(ctx context.Context, id types.ProtocolID, s Transport) (R, error)

// Handle 实现 Handler
func (f HandlerFunc[R]) Handle(ctx context.Context, id types.ProtocolID, s Transport) (R, error) {
	return f(ctx, id, s)
}
