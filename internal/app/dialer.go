package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	hyamux "github.com/hashicorp/yamux"
	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-mss/config"
	"github.com/dep2p/go-mss/internal/core/metrics"
	"github.com/dep2p/go-mss/internal/core/multistream"
	"github.com/dep2p/go-mss/internal/core/muxer/yamux"
	"github.com/dep2p/go-mss/internal/core/protocache"
	"github.com/dep2p/go-mss/internal/protocol/echo"
	"github.com/dep2p/go-mss/pkg/interfaces"
	"github.com/dep2p/go-mss/pkg/types"
)

// ============================================================================
//                              Dialer - 发起方
// ============================================================================

// Dialer 建立 TCP 连接并以发起方身份协商
//
// 提议顺序先经过协议缓存：上次与同一地址协商成功的协议排在最前，
// 失败时清除该地址的缓存。
type Dialer struct {
	cfg       config.DialConfig
	yamuxCfg  *hyamux.Config
	opts      []multistream.Option
	cache     *protocache.Cache
	reporter  metrics.Reporter
	collector *metrics.Collector
}

// DialerParams Dialer 依赖参数
type DialerParams struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	NegCfg     multistream.Config
	Sink       interfaces.MultiSink
	Cache      *protocache.Cache  `optional:"true"`
	Reporter   metrics.Reporter   `optional:"true"`
	Collector  *metrics.Collector `optional:"true"`
}

// NewDialer 创建 Dialer
func NewDialer(p DialerParams) *Dialer {
	cfg := config.NewConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg
	}
	return &Dialer{
		cfg:       cfg.Dial,
		yamuxCfg:  yamux.ConfigToYamux(cfg.Yamux),
		opts:      multistream.OptionsFrom(p.NegCfg, p.Sink),
		cache:     p.Cache,
		reporter:  p.Reporter,
		collector: p.Collector,
	}
}

// Conn 协商完成的出站连接
//
// 读写走协商选中的协议；使用 yamux 时读写的是会话上的第一个子流。
type Conn struct {
	protocol types.ProtocolID
	stream   io.ReadWriteCloser
	muxer    *yamux.Muxer
	raw      net.Conn
}

// Protocol 返回协商选中的协议
func (c *Conn) Protocol() types.ProtocolID {
	return c.protocol
}

// Multiplexed 是否经过 yamux 子流
func (c *Conn) Multiplexed() bool {
	return c.muxer != nil
}

// Read 实现 io.Reader
func (c *Conn) Read(p []byte) (int, error) {
	return c.stream.Read(p)
}

// Write 实现 io.Writer
func (c *Conn) Write(p []byte) (int, error) {
	return c.stream.Write(p)
}

// Close 依次关闭流、会话和 TCP 连接
func (c *Conn) Close() error {
	err := c.stream.Close()
	if c.muxer != nil {
		err = multierr.Append(err, c.muxer.Close())
	}
	if cerr := c.raw.Close(); cerr != nil && !isClosedErr(cerr) {
		err = multierr.Append(err, cerr)
	}
	return err
}

// Dial 连接 addr 并按顺序提议 protocols
//
// addr 为空时使用配置的地址，protocols 为空时使用配置的协议（默认回显协议）。
// 配置启用 UseYamux 时先协商 /yamux/1.0.0，再在新子流上协商。
func (d *Dialer) Dial(ctx context.Context, addr string, protocols []types.ProtocolID) (*Conn, error) {
	return d.dial(ctx, addr, protocols, d.cfg.UseYamux)
}

// DialMux 与 Dial 相同，但总是经过 yamux 子流
func (d *Dialer) DialMux(ctx context.Context, addr string, protocols []types.ProtocolID) (*Conn, error) {
	return d.dial(ctx, addr, protocols, true)
}

func (d *Dialer) dial(ctx context.Context, addr string, protocols []types.ProtocolID, mux bool) (*Conn, error) {
	addr = d.addr(addr)
	if len(protocols) == 0 {
		protocols = d.protocols()
	}

	raw, err := d.connect(ctx, addr)
	if err != nil {
		return nil, err
	}

	c := &Conn{raw: raw}
	var t interfaces.Transport = raw
	if mux {
		if t, err = d.openSubStream(ctx, c); err != nil {
			return nil, multierr.Append(err, closeRaw(raw))
		}
	}

	ordered := d.cache.Order(addr, protocols)
	id, s, err := multistream.SelectOneOf(ctx, t, ordered, d.opts...)
	if err != nil {
		d.cache.Forget(addr)
		if c.muxer != nil {
			err = multierr.Append(err, c.muxer.Close())
		}
		return nil, multierr.Append(err, closeRaw(raw))
	}
	d.cache.Record(addr, id)

	c.protocol = id
	c.stream = metrics.Meter(s, id, d.reporter, d.collector)
	logger.Debug("协商完成", "addr", addr, "protocol", string(id), "yamux", mux)
	return c, nil
}

// openSubStream 在 raw 上协商 yamux 并打开第一个子流
func (d *Dialer) openSubStream(ctx context.Context, c *Conn) (interfaces.Transport, error) {
	_, ms, err := multistream.SelectOneOf(ctx, c.raw, []types.ProtocolID{yamux.ID}, d.opts...)
	if err != nil {
		return nil, err
	}
	m, err := yamux.Client(ms, d.yamuxCfg)
	if err != nil {
		return nil, err
	}
	s, err := m.NewStream(ctx)
	if err != nil {
		return nil, multierr.Append(err, m.Close())
	}
	c.muxer = m
	return s, nil
}

// List 连接 addr 并请求对方的协议列表
func (d *Dialer) List(ctx context.Context, addr string) (ids []types.ProtocolID, err error) {
	raw, err := d.connect(ctx, d.addr(addr))
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, closeRaw(raw))
	}()

	return multistream.ListRemote(ctx, raw, d.opts...)
}

// connect 建立 TCP 连接，超时取自配置
func (d *Dialer) connect(ctx context.Context, addr string) (net.Conn, error) {
	nd := net.Dialer{Timeout: d.cfg.Timeout.Duration()}
	raw, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("连接 %s 失败: %w", addr, err)
	}
	return raw, nil
}

func (d *Dialer) addr(addr string) string {
	if addr == "" {
		return d.cfg.Addr
	}
	return addr
}

func (d *Dialer) protocols() []types.ProtocolID {
	if len(d.cfg.Protocols) == 0 {
		return []types.ProtocolID{echo.ID}
	}
	out := make([]types.ProtocolID, len(d.cfg.Protocols))
	for i, p := range d.cfg.Protocols {
		out[i] = types.ProtocolID(p)
	}
	return out
}

// closeRaw 关闭连接，忽略协商失败时已被关闭的情况
func closeRaw(c net.Conn) error {
	if err := c.Close(); err != nil && !isClosedErr(err) {
		return err
	}
	return nil
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
