// Package metrics 提供协商指标与带宽统计
//
// 两部分内容：
//   - Collector: Prometheus 协商指标，实现 interfaces.EventSink，
//     按事件名和角色计数，记录协商耗时
//   - BandwidthCounter: 协商完成后按协议统计流量（总量 + 60 秒平均速率）
//
// # 快速开始
//
//	reg := prometheus.NewRegistry()
//	collector := metrics.NewCollector("mss")
//	_ = reg.Register(collector)
//
//	neg := multistream.Start[int](conn, types.RoleResponder,
//	    multistream.WithEventSink(collector))
//
//	counter := metrics.NewBandwidthCounter()
//	s = metrics.Meter(s, proto, counter, collector)
//
// # 指标
//
//	mss_negotiation_events_total{event, role}
//	mss_negotiation_accepted_total{role, protocol}
//	mss_negotiation_duration_seconds{role, outcome}
//	mss_stream_bytes_total{protocol, direction}
//
// 协议标签只来自本端注册表中被接受的协议，远端发来的未知 ID 不会成为标签。
//
// # Fx 模块
//
//	app := fx.New(
//	    metrics.Module(),
//	    fx.Invoke(func(reg *prometheus.Registry, reporter metrics.Reporter) { ... }),
//	)
//
// # 并发安全
//
// 所有方法都是并发安全的，同一个 Collector 可以被所有连接共享。
package metrics
