package multistream

import (
	"errors"

	"github.com/dep2p/go-mss/pkg/lib/msgio"
)

// 协商错误定义
//
// 所有错误都会终止整个协商，不做内部重试。
// 传输层 I/O 错误原样包装返回，可通过 errors.Is / errors.As 识别。
var (
	// ErrMalformedFrame 帧长度已满足但结尾不是换行符
	ErrMalformedFrame = msgio.ErrMalformedFrame

	// ErrMessageTooLarge 帧长度超过上限
	ErrMessageTooLarge = msgio.ErrMessageTooLarge

	// ErrInvalidEncoding 期望文本的位置收到非 UTF-8 字节
	ErrInvalidEncoding = errors.New("multistream: invalid utf-8 encoding")

	// ErrUnknownHeaderVersion 对方的协议头与 /multistream/1.0.0 不一致
	ErrUnknownHeaderVersion = errors.New("multistream: unknown multistream version")

	// ErrPeerClosed 对方在应当发送消息的位置有序关闭了流
	ErrPeerClosed = errors.New("multistream: peer closed connection during negotiation")

	// ErrUnexpectedResponse 发起方收到既不是回显也不是 "na" 的响应
	ErrUnexpectedResponse = errors.New("multistream: unexpected response")

	// ErrNoProtocolNegotiated 发起方的协议列表全部被拒绝
	ErrNoProtocolNegotiated = errors.New("multistream: no protocol was negotiated")

	// ErrNotImplemented 响应方收到 "ls" 但配置为不支持列出协议
	ErrNotImplemented = errors.New("multistream: ls not implemented")

	// ErrDuplicateProtocol 同一协议 ID 注册了多次
	ErrDuplicateProtocol = errors.New("multistream: protocol already registered")

	// ErrReservedProtocol 协议 ID 与控制消息 "na" / "ls" 冲突
	ErrReservedProtocol = errors.New("multistream: reserved protocol id")

	// ErrNilHandler 注册了空处理器
	ErrNilHandler = errors.New("multistream: nil handler")

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("multistream: invalid config")
)
