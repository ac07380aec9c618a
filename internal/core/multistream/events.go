package multistream

import (
	"context"
	"log/slog"

	"github.com/dep2p/go-mss/pkg/interfaces"
	"github.com/dep2p/go-mss/pkg/lib/log"
	"github.com/dep2p/go-mss/pkg/types"
)

var logger = log.Logger("core/multistream")

// LogSink 将协商事件写入结构化日志
//
// 日志消息即事件名称（header_mismatch、protocol_denied、protocol_accepted ...），
// 便于按名称检索。
type LogSink struct {
	// Level 普通事件的日志级别，header_mismatch 和 negotiation_failed 至少为 Warn
	Level slog.Level
}

// NewLogSink 创建 Debug 级别的日志事件接收器
func NewLogSink() *LogSink {
	return &LogSink{Level: slog.LevelDebug}
}

var _ interfaces.EventSink = (*LogSink)(nil)

// HandleEvent 实现 EventSink
func (l *LogSink) HandleEvent(ctx context.Context, ev types.NegotiationEvent) {
	level := l.Level
	if ev.Name == types.EventHeaderMismatch || ev.Name == types.EventNegotiationFailed {
		level = max(level, slog.LevelWarn)
	}
	if !logger.Enabled(ctx, level) {
		return
	}

	args := []any{
		"session", log.TruncateID(ev.Session, 8),
		"role", ev.Role.String(),
		"elapsed", ev.Elapsed,
	}
	if !ev.Protocol.IsEmpty() {
		args = append(args, "protocol", string(ev.Protocol))
	}
	if ev.Err != nil {
		args = append(args, "err", ev.Err)
	}
	logger.Log(ctx, level, string(ev.Name), args...)
}
