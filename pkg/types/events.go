package types

import "time"

// ============================================================================
//                              协商事件
// ============================================================================

// EventName 协商事件名称（稳定，可用于日志检索和指标标签）
type EventName string

// 协商事件名称
const (
	EventHeaderOK          EventName = "header_ok"
	EventHeaderMismatch    EventName = "header_mismatch"
	EventProtocolProposed  EventName = "protocol_proposed"
	EventProtocolDenied    EventName = "protocol_denied"
	EventProtocolAccepted  EventName = "protocol_accepted"
	EventListRequested     EventName = "ls_requested"
	EventNegotiationFailed EventName = "negotiation_failed"
)

// NegotiationEvent 协商过程中产生的结构化事件
type NegotiationEvent struct {
	// Name 事件名称
	Name EventName

	// Session 单次协商的会话 ID
	Session string

	// Role 本端角色
	Role Role

	// Protocol 相关协议（部分事件为空）
	Protocol ProtocolID

	// Err 失败原因（仅 negotiation_failed / header_mismatch）
	Err error

	// Elapsed 自协商开始经过的时间
	Elapsed time.Duration
}
