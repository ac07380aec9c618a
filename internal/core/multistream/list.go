package multistream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/dep2p/go-mss/pkg/interfaces"
	"github.com/dep2p/go-mss/pkg/lib/msgio"
	"github.com/dep2p/go-mss/pkg/types"
)

// ============================================================================
//                              "ls" 协议列表
// ============================================================================
//
// 响应方用一帧回复 "ls"，帧内容是若干个嵌套的子帧，每个子帧是一个协议 ID：
//
//	frame{ frame{id1} frame{id2} ... }
//
// 外层帧的换行符即列表结束标记。

// encodeProtocolList 编码协议列表
func encodeProtocolList(protocols []types.ProtocolID) []byte {
	var buf []byte
	for _, p := range protocols {
		buf = append(buf, msgio.EncodeMessage([]byte(p))...)
	}
	return buf
}

// decodeProtocolList 解码协议列表
func decodeProtocolList(payload []byte) ([]types.ProtocolID, error) {
	var out []types.ProtocolID
	for len(payload) > 0 {
		msg, n, err := msgio.DecodeMessage(payload)
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: truncated protocol list", ErrMalformedFrame)
			}
			return nil, err
		}
		if !utf8.Valid(msg) {
			return nil, fmt.Errorf("listed protocol: %w", ErrInvalidEncoding)
		}
		out = append(out, types.ProtocolID(msg))
		payload = payload[n:]
	}
	return out, nil
}

// ListRemote 向响应方请求其支持的协议列表
//
// 完成协议头交换后发送 "ls" 并返回响应方剩余可协商的协议。
// 返回后本次会话即结束：协议头不能重发，预读的字节也已丢弃，
// 调用方应关闭传输。需要先列出再协商时，在发起方 Negotiator 上使用 WithListFirst。
func ListRemote(ctx context.Context, t interfaces.Transport, opts ...Option) ([]types.ProtocolID, error) {
	o := defaultSettings()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = o.clock.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	s := newSession(t, types.RoleInitiator, o)
	release := s.bind(ctx)
	defer release()

	if err := exchangeHeader(ctx, s); err != nil {
		return nil, cancelled(ctx, err)
	}
	listed, err := requestList(ctx, s)
	if err != nil {
		return nil, cancelled(ctx, err)
	}
	return listed, nil
}

// requestList 在已完成协议头交换的会话上发送 "ls" 并解码回复
func requestList(ctx context.Context, s *session) ([]types.ProtocolID, error) {
	s.emit(ctx, types.EventListRequested, "", nil)
	if err := s.write([]byte(LS)); err != nil {
		return nil, fmt.Errorf("write ls: %w", err)
	}

	payload, err := s.read()
	if err != nil {
		return nil, peerClosed(err, "awaiting ls response")
	}
	if string(payload) == NA {
		return nil, ErrNotImplemented
	}
	return decodeProtocolList(payload)
}

// supported 按本端顺序保留对方列出的协议
func supported[R any](table []entry[R], remote []types.ProtocolID) []entry[R] {
	listed := make(map[types.ProtocolID]struct{}, len(remote))
	for _, id := range remote {
		listed[id] = struct{}{}
	}
	out := make([]entry[R], 0, len(table))
	for _, e := range table {
		if _, ok := listed[e.id]; ok {
			out = append(out, e)
		}
	}
	return out
}
