// Package interfaces 定义 go-mss 的公共接口
//
// 协商核心只依赖这里的接口：
//   - transport.go - Transport 双向字节流、DeadlineTransport
//   - handler.go   - Handler 协议处理器（协商成功后独占流）
//   - events.go    - EventSink 结构化事件接收器
package interfaces
