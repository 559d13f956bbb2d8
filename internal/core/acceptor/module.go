package acceptor

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-bgpd/config"
	"github.com/dep2p/go-bgpd/internal/core/metrics"
	"github.com/dep2p/go-bgpd/internal/core/peerindex"
	"github.com/dep2p/go-bgpd/internal/core/transport/tcp"
	pkgif "github.com/dep2p/go-bgpd/pkg/interfaces"
)

// Params 接纳模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Index      *peerindex.Index
	Reporter   metrics.Reporter `optional:"true"`
	EventBus   pkgif.EventBus   `optional:"true"`
	Clock      clock.Clock      `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("acceptor",
		fx.Provide(
			ProvideConfig,
			ProvideAdapter,
		),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideConfig 从统一配置提供接纳配置
func ProvideConfig(p Params) Config {
	return ConfigFromUnified(p.UnifiedCfg)
}

// ProvideAdapter 提供接纳适配器
func ProvideAdapter(cfg Config, p Params) (*Adapter, error) {
	var opts []Option
	if p.Reporter != nil {
		opts = append(opts, WithReporter(p.Reporter))
	}
	if p.EventBus != nil {
		opts = append(opts, WithEventBus(p.EventBus))
	}
	if p.Clock != nil {
		opts = append(opts, WithClock(p.Clock))
	}
	return New(p.Index, cfg, opts...)
}

// lifecycleInput 生命周期注册输入
type lifecycleInput struct {
	fx.In

	LC        fx.Lifecycle
	Config    Config
	Adapter   *Adapter
	Transport *tcp.Transport `optional:"true"`
}

// registerLifecycle 注册生命周期钩子
//
// 注入了 TCP 传输时，启动阶段在每个配置地址上监听并运行接受循环；
// 停止阶段先停止接受循环，再停止期限定时器。
func registerLifecycle(in lifecycleInput) {
	ctx, cancel := context.WithCancel(context.Background())

	in.LC.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			if in.Transport == nil {
				return nil
			}
			var listeners []*tcp.Listener
			for _, addr := range in.Config.ListenAddrs {
				l, err := in.Transport.Listen(startCtx, addr)
				if err != nil {
					for _, opened := range listeners {
						err = multierr.Append(err, opened.Close())
					}
					return err
				}
				listeners = append(listeners, l)
			}
			for _, l := range listeners {
				in.Adapter.Go(ctx, l)
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			in.Adapter.Wait()
			return in.Adapter.Close()
		},
	})
}
