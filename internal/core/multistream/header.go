package multistream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dep2p/go-mss/pkg/types"
)

// exchangeHeader 交换并校验 multistream 协议头
//
// 双方都是先写后读，协议头必须逐字节一致。
func exchangeHeader(ctx context.Context, s *session) error {
	if err := s.write([]byte(types.MultistreamHeader)); err != nil {
		return fmt.Errorf("write multistream header: %w", err)
	}

	msg, err := s.readText()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return peerClosed(err, "header exchange")
		}
		if errors.Is(err, ErrInvalidEncoding) {
			s.emit(ctx, types.EventHeaderMismatch, "", err)
			return err
		}
		return fmt.Errorf("read multistream header: %w", err)
	}

	if types.ProtocolID(msg) != types.MultistreamHeader {
		err := fmt.Errorf("%w: %q", ErrUnknownHeaderVersion, msg)
		s.emit(ctx, types.EventHeaderMismatch, types.ProtocolID(msg), err)
		return err
	}

	s.emit(ctx, types.EventHeaderOK, "", nil)
	return nil
}
