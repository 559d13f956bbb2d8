package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-bgpd/config"
	"github.com/dep2p/go-bgpd/internal/core/peerindex"
)

// ============================================================================
// Fx 模块测试
// ============================================================================

// TestModule_Load 测试模块加载
func TestModule_Load(t *testing.T) {
	var (
		reporter Reporter
		gatherer prometheus.Gatherer
	)

	app := fxtest.New(t,
		Module(),
		fx.Populate(&reporter, &gatherer),
	)
	defer app.RequireStart().RequireStop()

	require.NotNil(t, reporter)
	reporter.AcceptAdmitted()
	assert.Equal(t, 1.0, metricValue(t, gatherer, "bgpd_accept_admitted_total", nil))
}

// TestModule_IndexCollector 测试注入对端索引时注册收集器
func TestModule_IndexCollector(t *testing.T) {
	ix := peerindex.New(peerindex.Config{InitialCapacity: 4, GrowBatch: 4, MaxCapacity: 16})

	var gatherer prometheus.Gatherer
	app := fxtest.New(t,
		fx.Supply(ix),
		Module(),
		fx.Populate(&gatherer),
	)
	defer app.RequireStart().RequireStop()

	assert.Equal(t, 4.0, metricValue(t, gatherer, "bgpd_peerindex_capacity", nil))
}

// TestModule_Server 测试启用 HTTP 暴露
func TestModule_Server(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Metrics.Enable = true
	cfg.Metrics.ListenAddr = "127.0.0.1:0"

	var mc Config
	app := fxtest.New(t,
		fx.Supply(cfg),
		Module(),
		fx.Populate(&mc),
	)
	defer app.RequireStart().RequireStop()

	assert.True(t, mc.Enabled)
	assert.Equal(t, "/metrics", mc.Path)
}
