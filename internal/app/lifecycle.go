package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// App go-mss 应用接口
//
// App 提供应用级别的生命周期管理
type App interface {
	// Runtime 返回运行时句柄
	Runtime() *Runtime

	// Wait 等待应用收到退出信号
	Wait()

	// Stop 停止应用
	Stop() error
}

// internalApp App 的内部实现
type internalApp struct {
	bootstrap *Bootstrap
	runtime   *Runtime
	stopOnce  sync.Once
	stopped   chan struct{}
}

// RunApp 运行 go-mss 应用
//
// 这是一个便捷函数：
// - 构建并启动运行时
// - 等待退出信号
// - 优雅关闭
//
// 示例:
//
//	a, err := app.RunApp(ctx, app.NewBootstrap(cfg, app.WithListen()))
//	if err != nil {
//	    return err
//	}
//	a.Wait()
func RunApp(ctx context.Context, bootstrap *Bootstrap) (App, error) {
	rt, err := bootstrap.Start(ctx)
	if err != nil {
		return nil, err
	}

	return &internalApp{
		bootstrap: bootstrap,
		runtime:   rt,
		stopped:   make(chan struct{}),
	}, nil
}

// Runtime 返回运行时句柄
func (a *internalApp) Runtime() *Runtime {
	return a.runtime
}

// Wait 等待应用收到退出信号
func (a *internalApp) Wait() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case sig := <-signals:
		logger.Info("收到信号，正在退出", "signal", sig.String())
	case <-a.stopped:
		return
	}

	_ = a.Stop()
}

// Stop 停止应用，可重复调用
func (a *internalApp) Stop() error {
	var err error
	a.stopOnce.Do(func() {
		close(a.stopped)
		if stopErr := a.bootstrap.Stop(context.Background()); stopErr != nil {
			err = fmt.Errorf("停止应用失败: %w", stopErr)
		}
	})
	return err
}
