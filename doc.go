// Package mss 提供 multistream-select 协议协商
//
// 两个端点在已经建立的双向字节流上（TCP 连接、多路复用子流等），
// 在交换任何应用数据之前约定接下来说哪一种协议：
// 发起方按偏好顺序逐个提议，响应方逐个接受或拒绝（"na"），
// 第一个被接受的协议胜出，流随后交给该协议的处理器独占。
//
// # 快速开始
//
//	import "github.com/dep2p/go-mss"
//
//	// 发起方
//	id, s, err := mss.SelectOneOf(ctx, conn, []mss.ProtocolID{"/yamux/1.0.0", "/mss/echo/1.0.0"})
//
//	// 响应方
//	id, s, err := mss.Accept(ctx, conn, []mss.ProtocolID{"/mss/echo/1.0.0"})
//
//	// 为每个协议注册处理器，协商成功后调用且只调用一次
//	n := mss.Start[int](conn, mss.RoleResponder, mss.WithTimeout(10*time.Second))
//	n = n.Register("/mss/echo/1.0.0", echoHandler)
//	frames, err := n.Finish(ctx)
//
// # 线路格式
//
//	frame := uvarint(len(payload)+1) payload '\n'
//
// 双方首先交换 "/multistream/1.0.0" 协议头，然后进行提议/应答循环。
// 响应方默认响应 "ls" 请求，返回当前可协商的协议列表（见 ListRemote）。
//
// # 文件组织
//
//   - mss.go: 协商 API（Start、SelectOneOf、Accept、ListRemote）
//   - errors.go: 错误定义
//   - version.go: 版本信息
//
// 命令行工具见 cmd/mss。
package mss
