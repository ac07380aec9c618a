package mss

import "github.com/dep2p/go-mss/internal/core/multistream"

// 公共错误定义
//
// 与内部协商错误是同一组值，可直接用 errors.Is 判断。
var (
	// ────────────────────────────────────────────────────────────────────────
	// 线路错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrMalformedFrame 帧结尾不是换行符
	ErrMalformedFrame = multistream.ErrMalformedFrame

	// ErrMessageTooLarge 帧长度超过上限
	ErrMessageTooLarge = multistream.ErrMessageTooLarge

	// ErrInvalidEncoding 收到非 UTF-8 文本
	ErrInvalidEncoding = multistream.ErrInvalidEncoding

	// ────────────────────────────────────────────────────────────────────────
	// 协商错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrUnknownHeaderVersion 协议头不一致
	ErrUnknownHeaderVersion = multistream.ErrUnknownHeaderVersion

	// ErrPeerClosed 对方在协商中关闭了流
	ErrPeerClosed = multistream.ErrPeerClosed

	// ErrUnexpectedResponse 对方的响应既不是回显也不是 "na"
	ErrUnexpectedResponse = multistream.ErrUnexpectedResponse

	// ErrNoProtocolNegotiated 所有提议均被拒绝
	ErrNoProtocolNegotiated = multistream.ErrNoProtocolNegotiated

	// ErrNotImplemented 对方不支持 "ls"
	ErrNotImplemented = multistream.ErrNotImplemented

	// ────────────────────────────────────────────────────────────────────────
	// 注册错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrDuplicateProtocol 重复注册
	ErrDuplicateProtocol = multistream.ErrDuplicateProtocol

	// ErrReservedProtocol 与控制消息冲突的协议 ID
	ErrReservedProtocol = multistream.ErrReservedProtocol

	// ErrNilHandler 空处理器
	ErrNilHandler = multistream.ErrNilHandler

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = multistream.ErrInvalidConfig
)
