// Package types 定义 go-mss 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - protocol.go - ProtocolID 及固定协议常量
//   - role.go     - Role 协商角色
//   - errors.go   - 公共错误定义
//   - events.go   - NegotiationEvent 协商事件
package types
