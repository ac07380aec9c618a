// Package multistream 实现 multistream-select 协议协商
//
// 在已经建立的双向字节流（TCP 连接或多路复用子流）上，
// 双方在任何应用数据之前约定接下来使用的协议。
//
// # 线路格式
//
//	frame      := uvarint(len(payload)+1) payload '\n'
//	header     := frame{"/multistream/1.0.0"}
//	proposal   := frame{<protocol-id>}
//	acceptance := frame{<same protocol-id>}
//	denial     := frame{"na"}
//
// # 协商流程
//
//	I -> R: header
//	R -> I: header
//	I -> R: proposal(p1)
//	R -> I: acceptance(p1) | denial
//	... 直到接受或列表耗尽 ...
//
// # 使用方式
//
// 发起方：
//
//	n := multistream.Start[*Session](conn, types.RoleInitiator, multistream.WithTimeout(5*time.Second))
//	sess, err := n.Register("/yamux/1.0.0", yamuxHandler).Finish(ctx)
//
// 响应方：
//
//	n := multistream.Start[struct{}](conn, types.RoleResponder)
//	_, err := n.Register(types.EchoProtocol, echoHandler).Finish(ctx)
//
// # 所有权
//
// 协商期间传输由 Negotiator 独占。成功时被选中的 Handler 被调用一次，
// 获得 *Stream（含协商阶段多读入的缓冲字节）；失败时不调用任何 Handler，
// 传输默认被关闭（WithKeepOnError 可保留）。
//
// # "ls"
//
// 响应方默认支持 "ls"：返回剩余协议列表后继续等待请求。
// WithListPolicy(RejectList) 则以 ErrNotImplemented 终止协商。
//
// # 取消
//
// 上下文结束时，若传输支持 SetDeadline 则设置过去的截止时间打断阻塞 I/O，
// 否则关闭传输。处理器一旦被调用就不再受协商超时影响。
package multistream
