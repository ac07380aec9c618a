// Package types 定义 go-mss 公共类型
//
// 本文件定义协议相关类型。
package types

import (
	"strings"
	"unicode/utf8"
)

// ProtocolID 协议标识符
//
// 比较为精确字节比较，例如 "/multistream/1.0.0" 或 "/mss/echo/1.0.0"。
type ProtocolID string

// 固定协议标识
const (
	// MultistreamHeader multistream-select 协议头
	MultistreamHeader ProtocolID = "/multistream/1.0.0"

	// YamuxProtocol yamux 多路复用协议
	YamuxProtocol ProtocolID = "/yamux/1.0.0"

	// EchoProtocol 回显演示协议
	EchoProtocol ProtocolID = "/mss/echo/1.0.0"
)

// String 返回协议 ID 的字符串表示
func (p ProtocolID) String() string {
	return string(p)
}

// IsEmpty 检查协议 ID 是否为空
func (p ProtocolID) IsEmpty() bool {
	return p == ""
}

// Version 返回协议版本（最后一个路径段）
func (p ProtocolID) Version() string {
	parts := strings.Split(string(p), "/")
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return ""
}

// Name 返回协议名称（不含版本）
func (p ProtocolID) Name() string {
	s := string(p)
	lastSlash := strings.LastIndex(s, "/")
	if lastSlash > 0 {
		return s[:lastSlash]
	}
	return s
}

// Validate 检查协议 ID 是否可以出现在线路上
//
// 协议 ID 必须非空、是合法 UTF-8，且不能包含换行符。
func (p ProtocolID) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyProtocolID
	}
	if !utf8.ValidString(string(p)) {
		return ErrInvalidProtocolID
	}
	if strings.ContainsRune(string(p), '\n') {
		return ErrInvalidProtocolID
	}
	return nil
}

// ProtocolIDsToStrings 转换为字符串切片
func ProtocolIDsToStrings(ids []ProtocolID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// StringsToProtocolIDs 从字符串切片转换
func StringsToProtocolIDs(ss []string) []ProtocolID {
	out := make([]ProtocolID, 0, len(ss))
	for _, s := range ss {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, ProtocolID(s))
	}
	return out
}
