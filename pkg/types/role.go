package types

import "fmt"

// ============================================================================
//                              Role - 协商角色
// ============================================================================

// Role 协商角色
//
// 角色在协商开始时确定，协商过程中不会改变。
type Role int

const (
	// RoleInitiator 发起方：按顺序提议协议
	RoleInitiator Role = iota
	// RoleResponder 响应方：接受或拒绝对方请求的协议
	RoleResponder
)

// String 返回角色的字符串表示
func (r Role) String() string {
	switch r {
	case RoleInitiator:
		return "initiator"
	case RoleResponder:
		return "responder"
	default:
		return "unknown"
	}
}

// ParseRole 解析角色名称
func ParseRole(s string) (Role, error) {
	switch s {
	case "initiator", "dialer", "client":
		return RoleInitiator, nil
	case "responder", "listener", "server":
		return RoleResponder, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}
