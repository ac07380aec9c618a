package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-mss/pkg/interfaces"
	"github.com/dep2p/go-mss/pkg/types"
)

const subsystem = "negotiation"

// Collector Prometheus 协商指标
//
// 同时实现 interfaces.EventSink（接收事件）和 prometheus.Collector（被注册表采集）。
type Collector struct {
	events   *prometheus.CounterVec
	accepted *prometheus.CounterVec
	duration *prometheus.HistogramVec
	bytes    *prometheus.CounterVec
}

var (
	_ interfaces.EventSink = (*Collector)(nil)
	_ prometheus.Collector = (*Collector)(nil)
)

// NewCollector 创建协商指标
func NewCollector(namespace string) *Collector {
	return &Collector{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_total",
				Help:      "Negotiation events by name and local role.",
			},
			[]string{"event", "role"},
		),
		accepted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "accepted_total",
				Help:      "Successful negotiations by local role and protocol.",
			},
			[]string{"role", "protocol"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "duration_seconds",
				Help:      "Negotiation duration in seconds.",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"role", "outcome"},
		),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "stream",
				Name:      "bytes_total",
				Help:      "Bytes carried by negotiated streams.",
			},
			[]string{"protocol", "direction"},
		),
	}
}

// Register 注册到 reg；已注册时返回 nil
func (c *Collector) Register(reg prometheus.Registerer) error {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return err
	}
	return nil
}

// HandleEvent 实现 interfaces.EventSink
func (c *Collector) HandleEvent(_ context.Context, ev types.NegotiationEvent) {
	role := ev.Role.String()
	c.events.WithLabelValues(string(ev.Name), role).Inc()

	switch ev.Name {
	case types.EventProtocolAccepted:
		c.accepted.WithLabelValues(role, string(ev.Protocol)).Inc()
		c.duration.WithLabelValues(role, "success").Observe(ev.Elapsed.Seconds())
	case types.EventNegotiationFailed:
		c.duration.WithLabelValues(role, "failure").Observe(ev.Elapsed.Seconds())
	}
}

// AddBytes 记录协商后流量
func (c *Collector) AddBytes(proto types.ProtocolID, in, out int64) {
	if in > 0 {
		c.bytes.WithLabelValues(string(proto), "in").Add(float64(in))
	}
	if out > 0 {
		c.bytes.WithLabelValues(string(proto), "out").Add(float64(out))
	}
}

// Describe 实现 prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.events.Describe(ch)
	c.accepted.Describe(ch)
	c.duration.Describe(ch)
	c.bytes.Describe(ch)
}

// Collect 实现 prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.events.Collect(ch)
	c.accepted.Collect(ch)
	c.duration.Collect(ch)
	c.bytes.Collect(ch)
}
