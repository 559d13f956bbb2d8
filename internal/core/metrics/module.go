package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"

	"github.com/dep2p/go-bgpd/config"
	"github.com/dep2p/go-bgpd/internal/core/peerindex"
)

// Config 指标配置
type Config struct {
	// Enabled 是否启用 HTTP 暴露
	Enabled bool

	// ListenAddr HTTP 监听地址
	ListenAddr string

	// Path 指标路径
	Path string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	d := config.DefaultMetricsConfig()
	return Config{
		Enabled:    d.Enable,
		ListenAddr: d.ListenAddr,
		Path:       d.Path,
	}
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled:    cfg.Metrics.Enable,
		ListenAddr: cfg.Metrics.ListenAddr,
		Path:       cfg.Metrics.Path,
	}
}

// Params Metrics 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Output Metrics 模块输出
type Output struct {
	fx.Out

	Registry *prometheus.Registry
	Gatherer prometheus.Gatherer
	Reporter Reporter
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(
			ProvideConfig,
			ProvideMetrics,
		),
		fx.Invoke(registerIndexCollector),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideConfig 从统一配置提供指标配置
func ProvideConfig(p Params) Config {
	return ConfigFromUnified(p.UnifiedCfg)
}

// ProvideMetrics 创建独立的 Registry 与 Reporter
func ProvideMetrics() Output {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return Output{
		Registry: reg,
		Gatherer: reg,
		Reporter: NewPromReporter(reg),
	}
}

type collectorInput struct {
	fx.In

	Registry *prometheus.Registry
	Index    *peerindex.Index `optional:"true"`
}

// registerIndexCollector 注入了对端索引时注册索引收集器
func registerIndexCollector(in collectorInput) {
	if in.Index == nil {
		return
	}
	in.Registry.MustRegister(NewIndexCollector(in.Index))
}

type lifecycleInput struct {
	fx.In

	LC       fx.Lifecycle
	Config   Config
	Gatherer prometheus.Gatherer
}

// registerLifecycle 启用时启动 HTTP 服务
func registerLifecycle(in lifecycleInput) {
	if !in.Config.Enabled {
		return
	}
	srv := NewServer(in.Config.ListenAddr, in.Config.Path, in.Gatherer)
	in.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return srv.Start()
		},
		OnStop: func(ctx context.Context) error {
			return srv.Stop(ctx)
		},
	})
}
