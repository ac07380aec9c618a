package metrics

import (
	"time"

	"github.com/dep2p/go-mss/pkg/types"
)

// Stats 带宽统计快照
//
// TotalIn 和 TotalOut 记录累计接收/发送字节数。
// RateIn 和 RateOut 记录最近 60 秒的平均每秒字节数。
type Stats struct {
	TotalIn  int64   // 总入站字节
	TotalOut int64   // 总出站字节
	RateIn   float64 // 入站速率（字节/秒）
	RateOut  float64 // 出站速率（字节/秒）
}

// Reporter 记录和检索协商后流量
type Reporter interface {
	// LogSentMessage 记录某协议流上发送的字节数
	LogSentMessage(size int64, proto types.ProtocolID)

	// LogRecvMessage 记录某协议流上接收的字节数
	LogRecvMessage(size int64, proto types.ProtocolID)

	// GetBandwidthForProtocol 获取协议带宽统计
	GetBandwidthForProtocol(types.ProtocolID) Stats

	// GetBandwidthTotals 获取总带宽统计
	GetBandwidthTotals() Stats

	// GetBandwidthByProtocol 获取所有协议带宽统计
	GetBandwidthByProtocol() map[types.ProtocolID]Stats

	// Reset 重置所有统计
	Reset()

	// TrimIdle 清理 since 之前不再活动的协议统计
	TrimIdle(since time.Time)
}

var _ Reporter = (*BandwidthCounter)(nil)
