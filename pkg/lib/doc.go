// Package lib 包含基础设施工具库
//
// 本目录包含与协商语义无关的通用工具库：
//
//   - log: 日志封装（按组件的 slog Logger）
//   - msgio: 长度前缀帧读写
//
// # 与 pkg/ 其他目录的关系
//
//   - interfaces/: 组件公共接口
//   - types/: 公共类型定义
//   - lib/: 基础设施工具库（本目录）
//
// # 使用示例
//
//	import (
//	    "github.com/dep2p/go-mss/pkg/lib/log"
//	    "github.com/dep2p/go-mss/pkg/lib/msgio"
//	)
package lib
