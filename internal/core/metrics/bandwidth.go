package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-mss/pkg/types"
)

// meter 单个方向的累计量和速率
type meter struct {
	total atomic.Int64
	rate  *RateMeter
}

func (m *meter) add(size int64) {
	m.total.Add(size)
	m.rate.Add(size)
}

// protocolMeters 单个协议的入站/出站计量
type protocolMeters struct {
	in, out meter
}

// BandwidthCounter 带宽计数器
//
// 按协议统计协商完成后流上的字节数。
type BandwidthCounter struct {
	clock clock.Clock

	totalIn  meter
	totalOut meter

	mu        sync.RWMutex
	protocols map[types.ProtocolID]*protocolMeters
}

// NewBandwidthCounter 创建 BandwidthCounter
func NewBandwidthCounter() *BandwidthCounter {
	return newBandwidthCounter(clock.New())
}

func newBandwidthCounter(c clock.Clock) *BandwidthCounter {
	bwc := &BandwidthCounter{
		clock:     c,
		protocols: make(map[types.ProtocolID]*protocolMeters),
	}
	bwc.totalIn.rate = newRateMeter(c)
	bwc.totalOut.rate = newRateMeter(c)
	return bwc
}

func (bwc *BandwidthCounter) protocol(proto types.ProtocolID) *protocolMeters {
	bwc.mu.RLock()
	pm := bwc.protocols[proto]
	bwc.mu.RUnlock()
	if pm != nil {
		return pm
	}

	bwc.mu.Lock()
	defer bwc.mu.Unlock()
	if pm = bwc.protocols[proto]; pm == nil {
		pm = &protocolMeters{}
		pm.in.rate = newRateMeter(bwc.clock)
		pm.out.rate = newRateMeter(bwc.clock)
		bwc.protocols[proto] = pm
	}
	return pm
}

// LogSentMessage 记录出站字节
func (bwc *BandwidthCounter) LogSentMessage(size int64, proto types.ProtocolID) {
	bwc.totalOut.add(size)
	bwc.protocol(proto).out.add(size)
}

// LogRecvMessage 记录入站字节
func (bwc *BandwidthCounter) LogRecvMessage(size int64, proto types.ProtocolID) {
	bwc.totalIn.add(size)
	bwc.protocol(proto).in.add(size)
}

// GetBandwidthForProtocol 返回协议带宽统计
func (bwc *BandwidthCounter) GetBandwidthForProtocol(proto types.ProtocolID) Stats {
	bwc.mu.RLock()
	pm := bwc.protocols[proto]
	bwc.mu.RUnlock()
	if pm == nil {
		return Stats{}
	}
	return pm.stats()
}

// GetBandwidthTotals 返回总带宽统计
func (bwc *BandwidthCounter) GetBandwidthTotals() Stats {
	return Stats{
		TotalIn:  bwc.totalIn.total.Load(),
		TotalOut: bwc.totalOut.total.Load(),
		RateIn:   bwc.totalIn.rate.Rate(),
		RateOut:  bwc.totalOut.rate.Rate(),
	}
}

// GetBandwidthByProtocol 返回所有协议带宽统计
func (bwc *BandwidthCounter) GetBandwidthByProtocol() map[types.ProtocolID]Stats {
	bwc.mu.RLock()
	defer bwc.mu.RUnlock()

	result := make(map[types.ProtocolID]Stats, len(bwc.protocols))
	for proto, pm := range bwc.protocols {
		result[proto] = pm.stats()
	}
	return result
}

// Reset 清除所有统计
func (bwc *BandwidthCounter) Reset() {
	bwc.totalIn.total.Store(0)
	bwc.totalOut.total.Store(0)
	bwc.totalIn.rate.Reset()
	bwc.totalOut.rate.Reset()

	bwc.mu.Lock()
	bwc.protocols = make(map[types.ProtocolID]*protocolMeters)
	bwc.mu.Unlock()
}

// TrimIdle 清理空闲统计
//
// 入站和出站都在 since 之前没有活动的协议被移除，总量不受影响。
func (bwc *BandwidthCounter) TrimIdle(since time.Time) {
	bwc.mu.Lock()
	defer bwc.mu.Unlock()

	for proto, pm := range bwc.protocols {
		if pm.in.rate.LastUpdate().Before(since) && pm.out.rate.LastUpdate().Before(since) {
			delete(bwc.protocols, proto)
		}
	}
}

func (pm *protocolMeters) stats() Stats {
	return Stats{
		TotalIn:  pm.in.total.Load(),
		TotalOut: pm.out.total.Load(),
		RateIn:   pm.in.rate.Rate(),
		RateOut:  pm.out.rate.Rate(),
	}
}
