package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-mss/config"
	"github.com/dep2p/go-mss/pkg/interfaces"
)

// ============================================================================
// Fx 模块测试
// ============================================================================

type sinks struct {
	fx.In

	Sinks []interfaces.EventSink `group:"event_sinks"`
}

// TestModule_Provides 测试模块提供的类型
func TestModule_Provides(t *testing.T) {
	var (
		reg       *prometheus.Registry
		collector *Collector
		reporter  Reporter
		group     sinks
	)

	app := fxtest.New(t,
		Module(),
		fx.Populate(&reg, &collector, &reporter, &group),
	)
	defer app.RequireStart().RequireStop()

	require.NotNil(t, reg)
	require.NotNil(t, collector)
	require.NotNil(t, reporter)
	require.Len(t, group.Sinks, 1)
	assert.Same(t, collector, group.Sinks[0])

	reporter.LogSentMessage(100, "/p")
	assert.Equal(t, int64(100), reporter.GetBandwidthTotals().TotalOut)

	t.Log("✅ metrics 模块提供 Collector/Reporter")
}

// TestModule_Disabled 测试关闭指标
func TestModule_Disabled(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Metrics.Enabled = false

	var (
		collector *Collector
		group     sinks
	)
	app := fxtest.New(t,
		fx.Supply(cfg),
		Module(),
		fx.Populate(&collector, &group),
	)
	defer app.RequireStart().RequireStop()

	assert.Nil(t, collector)
	require.Len(t, group.Sinks, 1)
	assert.IsType(t, interfaces.NopSink{}, group.Sinks[0])
}

func TestConfigFromUnified(t *testing.T) {
	assert.Equal(t, DefaultConfig(), ConfigFromUnified(nil))

	cfg := config.NewConfig()
	cfg.Metrics.Namespace = "edge"
	assert.Equal(t, Config{Enabled: true, Namespace: "edge"}, ConfigFromUnified(cfg))
}
