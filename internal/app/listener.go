package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	hyamux "github.com/hashicorp/yamux"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-mss/config"
	"github.com/dep2p/go-mss/internal/core/metrics"
	"github.com/dep2p/go-mss/internal/core/multistream"
	"github.com/dep2p/go-mss/internal/core/muxer/yamux"
	"github.com/dep2p/go-mss/internal/protocol/echo"
	"github.com/dep2p/go-mss/pkg/interfaces"
	"github.com/dep2p/go-mss/pkg/lib/log"
	"github.com/dep2p/go-mss/pkg/types"
)

var logger = log.Logger("app")

// ErrUnknownProtocol 配置中出现未内置的协议
var ErrUnknownProtocol = errors.New("app: unknown protocol")

// builtinProtocols 内置协议，按注册顺序
var builtinProtocols = []types.ProtocolID{echo.ID, yamux.ID}

// ============================================================================
//                              Listener - 响应方
// ============================================================================

// Listener 接受 TCP 连接，并在每条连接上以响应方身份运行一次协商
//
// 连接上选中 /yamux/1.0.0 时，每个入站子流再各自协商一次，
// 子流上只提供非多路复用协议。
type Listener struct {
	cfg       config.ListenConfig
	yamuxCfg  *hyamux.Config
	opts      []multistream.Option
	protocols []types.ProtocolID
	handlers  map[types.ProtocolID]interfaces.Handler[int]
	reporter  metrics.Reporter
	collector *metrics.Collector

	mu     sync.Mutex
	ln     net.Listener
	cancel context.CancelFunc
	group  *errgroup.Group
	done   chan struct{}
}

// ListenerParams Listener 依赖参数
type ListenerParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	UnifiedCfg *config.Config `optional:"true"`
	NegCfg     multistream.Config
	Sink       interfaces.MultiSink
	Reporter   metrics.Reporter
	Collector  *metrics.Collector `optional:"true"`
}

// NewListener 创建 Listener 并挂到 fx 生命周期上
func NewListener(p ListenerParams) (*Listener, error) {
	cfg := config.NewConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg
	}

	protocols, err := parseProtocols(cfg.Listen.Protocols)
	if err != nil {
		return nil, err
	}

	l := &Listener{
		cfg:       cfg.Listen,
		yamuxCfg:  yamux.ConfigToYamux(cfg.Yamux),
		opts:      multistream.OptionsFrom(p.NegCfg, p.Sink),
		protocols: protocols,
		reporter:  p.Reporter,
		collector: p.Collector,
	}
	l.handlers = map[types.ProtocolID]interfaces.Handler[int]{
		echo.ID:  interfaces.HandlerFunc[int](l.serveEcho),
		yamux.ID: yamux.Handler(l.yamuxCfg, l.serveSubStream),
	}

	if p.Lifecycle != nil {
		p.Lifecycle.Append(fx.Hook{
			OnStart: l.Start,
			OnStop:  l.Stop,
		})
	}
	return l, nil
}

// Protocols 返回连接上提供的协议
func (l *Listener) Protocols() []types.ProtocolID {
	out := make([]types.ProtocolID, len(l.protocols))
	copy(out, l.protocols)
	return out
}

// Addr 返回实际监听地址，未启动时为 nil
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Start 开始监听并启动接受循环
func (l *Listener) Start(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln != nil {
		return nil
	}

	ln, err := net.Listen("tcp", l.cfg.Addr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", l.cfg.Addr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	g := new(errgroup.Group)
	if l.cfg.MaxConns > 0 {
		g.SetLimit(l.cfg.MaxConns)
	}

	l.ln = ln
	l.cancel = cancel
	l.group = g
	l.done = make(chan struct{})

	go l.acceptLoop(ctx, ln, g, l.done)

	logger.Info("开始监听", "addr", ln.Addr().String(), "protocols", types.ProtocolIDsToStrings(l.protocols))
	return nil
}

// Stop 关闭监听并等待所有连接结束
//
// 进行中的协商和处理器通过上下文取消被打断。
func (l *Listener) Stop(ctx context.Context) error {
	l.mu.Lock()
	ln, cancel, g, done := l.ln, l.cancel, l.group, l.done
	l.ln = nil
	l.mu.Unlock()
	if ln == nil {
		return nil
	}

	cancel()
	err := ln.Close()

	wait := make(chan struct{})
	go func() {
		<-done
		_ = g.Wait()
		close(wait)
	}()

	select {
	case <-wait:
		logger.Info("监听已停止", "addr", ln.Addr().String())
	case <-ctx.Done():
		return ctx.Err()
	}
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// acceptLoop 每条入站连接一个 goroutine，连接数达到上限时阻塞接受
func (l *Listener) acceptLoop(ctx context.Context, ln net.Listener, g *errgroup.Group, done chan struct{}) {
	defer close(done)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Warn("接受连接失败", "err", err)
			continue
		}
		g.Go(func() error {
			l.serveConn(ctx, conn)
			return nil
		})
	}
}

// serveConn 在一条连接上协商并运行处理器
func (l *Listener) serveConn(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	defer conn.Close()

	n, err := l.negotiator(conn, l.protocols).Finish(ctx)
	if err != nil {
		logger.Debug("连接处理失败", "remote", remote, "err", err)
		return
	}
	logger.Debug("连接处理完成", "remote", remote, "units", n)
}

// negotiator 为 t 构建响应方协商器
func (l *Listener) negotiator(t interfaces.Transport, protocols []types.ProtocolID) multistream.Negotiator[int] {
	n := multistream.Start[int](t, types.RoleResponder, l.opts...)
	for _, id := range protocols {
		n = n.Register(id, l.handlers[id])
	}
	return n
}

// serveSubStream 在 yamux 子流上再协商一次
func (l *Listener) serveSubStream(ctx context.Context, s *yamux.Stream) error {
	_, err := l.negotiator(s, l.subProtocols()).Finish(ctx)
	return err
}

// subProtocols 子流上提供的协议：不允许嵌套多路复用
func (l *Listener) subProtocols() []types.ProtocolID {
	out := make([]types.ProtocolID, 0, len(l.protocols))
	for _, id := range l.protocols {
		if id != yamux.ID {
			out = append(out, id)
		}
	}
	return out
}

func (l *Listener) serveEcho(ctx context.Context, id types.ProtocolID, s interfaces.Transport) (int, error) {
	return echo.Serve(ctx, metrics.Meter(s, id, l.reporter, l.collector))
}

// parseProtocols 把配置中的协议名解析为内置协议，为空时返回全部内置协议
func parseProtocols(names []string) ([]types.ProtocolID, error) {
	if len(names) == 0 {
		out := make([]types.ProtocolID, len(builtinProtocols))
		copy(out, builtinProtocols)
		return out, nil
	}

	out := make([]types.ProtocolID, 0, len(names))
	for _, name := range names {
		id := types.ProtocolID(name)
		if !isBuiltin(id) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProtocol, name)
		}
		out = append(out, id)
	}
	return out, nil
}

func isBuiltin(id types.ProtocolID) bool {
	for _, b := range builtinProtocols {
		if b == id {
			return true
		}
	}
	return false
}
