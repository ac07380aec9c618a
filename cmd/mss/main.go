// Package main 提供 mss 命令行入口
//
// 子命令：
//
//	mss listen [-config f] [-addr :4001] [-preset server]
//	mss dial   -addr host:port [-proto /mss/echo/1.0.0,...] [-msg text] [-yamux]
//	mss ls     -addr host:port
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dep2p/go-mss"
	"github.com/dep2p/go-mss/config"
	"github.com/dep2p/go-mss/internal/app"
	"github.com/dep2p/go-mss/internal/protocol/echo"
	"github.com/dep2p/go-mss/pkg/lib/log"
	"github.com/dep2p/go-mss/pkg/types"
)

var logger = log.Logger("cmd/mss")

// errUsage 参数错误，已打印用法
var errUsage = errors.New("参数错误")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		printHelp(out)
		return errUsage
	}

	switch args[0] {
	case "listen":
		return runListen(args[1:], out)
	case "dial":
		return runDial(args[1:], out)
	case "ls":
		return runList(args[1:], out)
	case "version", "-version", "--version":
		fmt.Fprintln(out, mss.VersionInfo())
		return nil
	case "help", "-h", "-help", "--help":
		printHelp(out)
		return nil
	default:
		printHelp(out)
		return fmt.Errorf("%w: 未知子命令 %q", errUsage, args[0])
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 公共参数
// ═══════════════════════════════════════════════════════════════════════════

// commonFlags 所有子命令共用的参数
type commonFlags struct {
	configFile string
	preset     string
	addr       string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configFile, "config", "", "配置文件路径（.json 或 .toml）")
	fs.StringVar(&c.preset, "preset", "", "预设配置 (default/server/minimal)")
	fs.StringVar(&c.addr, "addr", "", "地址 host:port")
}

// load 加载配置：配置文件 < 环境变量 < 命令行参数
func (c *commonFlags) load(fs *flag.FlagSet) (*config.Config, error) {
	cfg, err := loadConfig(c.configFile, c.preset)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	if isFlagSet(fs, "addr") {
		cfg.Listen.Addr = c.addr
		cfg.Dial.Addr = c.addr
	}
	return cfg, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// listen
// ═══════════════════════════════════════════════════════════════════════════

func runListen(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("listen", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	metricsAddr := fs.String("metrics", "", "/metrics 端点地址（为空不暴露）")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	if *metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = *metricsAddr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("启动 mss 监听", "version", mss.Version)
	a, err := app.RunApp(ctx, app.NewBootstrap(cfg, app.WithListen()))
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}

	rt := a.Runtime()
	fmt.Fprintf(out, "监听 %s\n", rt.Listener.Addr())
	fmt.Fprintf(out, "协议 %s\n", strings.Join(types.ProtocolIDsToStrings(rt.Listener.Protocols()), ", "))
	if rt.MetricsServer != nil {
		fmt.Fprintf(out, "指标 http://%s/metrics\n", rt.MetricsServer.Addr())
	}
	fmt.Fprintln(out, "按 Ctrl+C 退出")

	a.Wait()
	return a.Stop()
}

// ═══════════════════════════════════════════════════════════════════════════
// dial
// ═══════════════════════════════════════════════════════════════════════════

func runDial(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("dial", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	protos := fs.String("proto", "", "按偏好顺序提议的协议，逗号分隔")
	msg := fs.String("msg", "", "协商到回显协议后发送的消息")
	useYamux := fs.Bool("yamux", false, "先协商 yamux，在子流上协商")
	timeout := fs.Duration("timeout", 10*time.Second, "整体超时")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	if *protos != "" {
		cfg.Dial.Protocols = splitAndTrim(*protos, ",")
	}
	if isFlagSet(fs, "yamux") {
		cfg.Dial.UseYamux = *useYamux
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	return withRuntime(ctx, cfg, func(rt *app.Runtime) error {
		c, err := rt.Dialer.Dial(ctx, "", nil)
		if err != nil {
			return fmt.Errorf("协商失败: %w", err)
		}
		defer c.Close()

		fmt.Fprintf(out, "协议 %s (yamux=%t)\n", c.Protocol(), c.Multiplexed())
		if *msg == "" {
			return nil
		}
		if c.Protocol() != echo.ID {
			return fmt.Errorf("协议 %s 不支持 -msg", c.Protocol())
		}
		reply, err := echo.NewClient(c).Call([]byte(*msg))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "回显 %s\n", reply)
		return nil
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// ls
// ═══════════════════════════════════════════════════════════════════════════

func runList(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	timeout := fs.Duration("timeout", 10*time.Second, "整体超时")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	return withRuntime(ctx, cfg, func(rt *app.Runtime) error {
		ids, err := rt.Dialer.List(ctx, "")
		if err != nil {
			return fmt.Errorf("获取协议列表失败: %w", err)
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	})
}

// withRuntime 启动只拨号的运行时，执行 fn 后停止
func withRuntime(ctx context.Context, cfg *config.Config, fn func(rt *app.Runtime) error) error {
	rt, err := app.NewBootstrap(cfg).Start(ctx)
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	defer func() { _ = rt.Stop(context.Background()) }()
	return fn(rt)
}

// isFlagSet 检查命令行参数是否被显式设置
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// printHelp 打印帮助信息
func printHelp(out io.Writer) {
	fmt.Fprint(out, `mss - multistream-select 工具

用法:
  mss listen [-config f] [-preset p] [-addr host:port] [-metrics host:port]
  mss dial   -addr host:port [-proto a,b] [-msg text] [-yamux]
  mss ls     -addr host:port
  mss version

环境变量:
  MSS_LISTEN_ADDR  监听地址
  MSS_DIAL_ADDR    拨号地址
  MSS_PRESET       预设配置
  MSS_METRICS_ADDR /metrics 端点地址
  MSS_LOG_LEVEL    日志级别，例如 core/multistream=debug,info
`)
}
