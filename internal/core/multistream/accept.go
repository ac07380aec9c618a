package multistream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/dep2p/go-mss/pkg/types"
)

// ============================================================================
//                              响应方状态机
// ============================================================================
//
//	ready ──msg(known id)──▶ accepting ──written──▶ handoff
//	  │ ▲
//	  │ └──────written────── denying ◀──msg(other)
//	  │ └──────written────── listing ◀──msg("ls")
//	  └──eof / bad utf-8 / ls rejected──▶ failed
//
// resume 是纯函数：接收当前状态和一个输入，返回新状态和要执行的副作用。
// 驱动循环执行副作用（读、写、交接）并把结果作为下一个输入喂回去，
// 因此状态机只在 I/O 边界挂起，且写完成之前绝不会发起下一次读。

type acceptState int

const (
	stateReady acceptState = iota
	stateDenying
	stateListing
	stateAccepting
	stateHandoff
	stateFailed
)

func (s acceptState) String() string {
	switch s {
	case stateReady:
		return "ready"
	case stateDenying:
		return "denying"
	case stateListing:
		return "listing"
	case stateAccepting:
		return "accepting"
	case stateHandoff:
		return "handoff"
	case stateFailed:
		return "failed"
	default:
		return "invalid"
	}
}

type inputKind int

const (
	inputMessage inputKind = iota
	inputEOF
	inputWritten
)

// input 驱动循环喂给状态机的事件
type input struct {
	kind inputKind
	msg  []byte
}

type effectKind int

const (
	effectRead effectKind = iota
	effectWrite
	effectHandoff
	effectFail
)

// effect 状态机要求驱动循环执行的副作用
type effect struct {
	kind    effectKind
	payload []byte
	err     error

	// 需要发出的事件（可为空）
	event    types.EventName
	protocol types.ProtocolID
}

// acceptor 响应方状态机
//
// 以值传递：resume 消费旧值并返回新值，不存在中间占位状态。
type acceptor[R any] struct {
	state  acceptState
	table  []entry[R]
	chosen entry[R]
	policy ListPolicy
}

func newAcceptor[R any](table []entry[R], policy ListPolicy) acceptor[R] {
	return acceptor[R]{
		state:  stateReady,
		table:  table,
		policy: policy,
	}
}

// resume 状态转移函数
func (a acceptor[R]) resume(in input) (acceptor[R], effect) {
	switch a.state {
	case stateReady:
		return a.onReady(in)

	case stateDenying, stateListing:
		if in.kind != inputWritten {
			break
		}
		a.state = stateReady
		return a, effect{kind: effectRead}

	case stateAccepting:
		if in.kind != inputWritten {
			break
		}
		a.state = stateHandoff
		return a, effect{
			kind:     effectHandoff,
			event:    types.EventProtocolAccepted,
			protocol: a.chosen.id,
		}
	}

	from := a.state
	a.state = stateFailed
	return a, effect{kind: effectFail, err: fmt.Errorf("multistream: acceptor received input %d in state %s", in.kind, from)}
}

func (a acceptor[R]) onReady(in input) (acceptor[R], effect) {
	switch in.kind {
	case inputEOF:
		a.state = stateFailed
		return a, effect{kind: effectFail, err: fmt.Errorf("%w: peer gave up on negotiation", ErrPeerClosed)}
	case inputMessage:
	default:
		a.state = stateFailed
		return a, effect{kind: effectFail, err: fmt.Errorf("multistream: acceptor received input %d in state ready", in.kind)}
	}

	if !utf8.Valid(in.msg) {
		a.state = stateFailed
		return a, effect{kind: effectFail, err: fmt.Errorf("requested protocol: %w", ErrInvalidEncoding)}
	}
	requested := types.ProtocolID(in.msg)

	if i := indexOf(a.table, requested); i >= 0 {
		a.chosen = a.table[i]
		a.table = removeAt(a.table, i)
		a.state = stateAccepting
		return a, effect{kind: effectWrite, payload: []byte(requested)}
	}

	if string(requested) == LS {
		if a.policy == RejectList {
			a.state = stateFailed
			return a, effect{kind: effectFail, err: ErrNotImplemented, event: types.EventListRequested}
		}
		a.state = stateListing
		return a, effect{
			kind:    effectWrite,
			payload: encodeProtocolList(ids(a.table)),
			event:   types.EventListRequested,
		}
	}

	a.state = stateDenying
	return a, effect{
		kind:     effectWrite,
		payload:  []byte(NA),
		event:    types.EventProtocolDenied,
		protocol: requested,
	}
}

// acceptAll 响应方驱动循环
func acceptAll[R any](ctx context.Context, s *session, table []entry[R]) (entry[R], error) {
	m := newAcceptor(table, s.opts.cfg.ListPolicy)
	eff := effect{kind: effectRead}

	for {
		var in input
		switch eff.kind {
		case effectRead:
			msg, err := s.read()
			switch {
			case errors.Is(err, io.EOF):
				in = input{kind: inputEOF}
			case err != nil:
				return entry[R]{}, fmt.Errorf("read protocol request: %w", err)
			default:
				in = input{kind: inputMessage, msg: msg}
			}

		case effectWrite:
			if err := s.write(eff.payload); err != nil {
				return entry[R]{}, fmt.Errorf("write response: %w", err)
			}
			in = input{kind: inputWritten}

		case effectHandoff:
			return m.chosen, nil

		case effectFail:
			return entry[R]{}, eff.err
		}

		m, eff = m.resume(in)
		if eff.event != "" {
			s.emit(ctx, eff.event, eff.protocol, eff.err)
		}
	}
}

// indexOf 返回第一个匹配项的下标
func indexOf[R any](table []entry[R], id types.ProtocolID) int {
	for i, e := range table {
		if e.id == id {
			return i
		}
	}
	return -1
}

// removeAt 返回删除第 i 项后的新切片，不修改原切片
func removeAt[R any](table []entry[R], i int) []entry[R] {
	out := make([]entry[R], 0, len(table)-1)
	out = append(out, table[:i]...)
	return append(out, table[i+1:]...)
}
