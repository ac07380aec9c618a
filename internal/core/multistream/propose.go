package multistream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dep2p/go-mss/pkg/types"
)

// proposeAll 发起方：按顺序逐个提议协议
//
// 严格串行：提议 N 的响应到达之前不会发出提议 N+1。
// 首个被接受的协议胜出；"na" 表示拒绝，继续下一个。
func proposeAll[R any](ctx context.Context, s *session, table []entry[R]) (entry[R], error) {
	for _, e := range table {
		ok, err := propose(ctx, s, e.id)
		if err != nil {
			return entry[R]{}, err
		}
		if ok {
			return e, nil
		}
	}
	return entry[R]{}, ErrNoProtocolNegotiated
}

// propose 提议单个协议，返回对方是否接受
func propose(ctx context.Context, s *session, id types.ProtocolID) (bool, error) {
	s.emit(ctx, types.EventProtocolProposed, id, nil)

	if err := s.write([]byte(id)); err != nil {
		return false, fmt.Errorf("propose %s: %w", id, err)
	}

	resp, err := s.readText()
	switch {
	case errors.Is(err, io.EOF):
		return false, peerClosed(err, "awaiting response to "+string(id))
	case errors.Is(err, ErrInvalidEncoding):
		return false, fmt.Errorf("response to %s: %w", id, err)
	case err != nil:
		return false, fmt.Errorf("read response to %s: %w", id, err)
	}

	switch resp {
	case string(id):
		return true, nil
	case NA:
		s.emit(ctx, types.EventProtocolDenied, id, nil)
		return false, nil
	default:
		return false, fmt.Errorf("%w: proposed %s, got %q", ErrUnexpectedResponse, id, resp)
	}
}
