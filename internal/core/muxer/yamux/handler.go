package yamux

import (
	"context"
	"errors"
	"io"

	"github.com/hashicorp/yamux"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-mss/pkg/interfaces"
	"github.com/dep2p/go-mss/pkg/lib/log"
	"github.com/dep2p/go-mss/pkg/types"
)

var logger = log.Logger("core/muxer/yamux")

// StreamFunc 在每个入站子流上运行
//
// 通常在子流上以响应方身份运行一次 multistream 协商。
// 返回的错误只记录日志，不影响同一会话上的其他子流。
type StreamFunc func(ctx context.Context, s *Stream) error

// Serve 在 conn 上运行 yamux 服务端，直到对方关闭会话或 ctx 结束
//
// 每个入站子流在独立的 goroutine 中交给 fn，返回已接受的子流数量。
func Serve(ctx context.Context, conn interfaces.Transport, cfg *yamux.Config, fn StreamFunc) (int, error) {
	m, err := Server(conn, cfg)
	if err != nil {
		return 0, err
	}
	defer m.Close()

	stop := context.AfterFunc(ctx, func() { _ = m.Close() })
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	accepted := 0
	var acceptErr error
	for {
		s, err := m.AcceptStream()
		if err != nil {
			// 会话已结束时的错误（EOF、连接重置）视为正常关闭
			if !isShutdown(err) && !m.IsClosed() {
				acceptErr = err
			}
			break
		}
		accepted++

		g.Go(func() error {
			defer s.Close()
			if err := fn(gctx, s); err != nil {
				logger.Debug("子流处理失败", "stream", s.ID(), "err", err)
			}
			return nil
		})
	}

	_ = g.Wait()
	if ctx.Err() != nil {
		return accepted, ctx.Err()
	}
	logger.Debug("yamux 会话结束", "streams", accepted)
	return accepted, acceptErr
}

// Handler 返回 /yamux/1.0.0 协议处理器
func Handler(cfg *yamux.Config, fn StreamFunc) interfaces.HandlerFunc[int] {
	return func(ctx context.Context, _ types.ProtocolID, s interfaces.Transport) (int, error) {
		return Serve(ctx, s, cfg, fn)
	}
}

// isShutdown 会话正常结束
func isShutdown(err error) bool {
	return errors.Is(err, yamux.ErrSessionShutdown) ||
		errors.Is(err, ErrMuxerClosed) ||
		errors.Is(err, io.EOF)
}
