package session

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/dep2p/go-bgpd/internal/core/acceptor"
	"github.com/dep2p/go-bgpd/internal/core/metrics"
	"github.com/dep2p/go-bgpd/internal/core/peerindex"
	"github.com/dep2p/go-bgpd/internal/core/transport/tcp"
	pkgif "github.com/dep2p/go-bgpd/pkg/interfaces"
)

// Params 会话绑定依赖参数
type Params struct {
	fx.In

	Index     *peerindex.Index
	Transport *tcp.Transport    `optional:"true"`
	Acceptor  *acceptor.Adapter `optional:"true"`
	Reporter  metrics.Reporter  `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("session",
		fx.Provide(ProvideBinder),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideBinder 提供会话绑定器
func ProvideBinder(p Params) *Binder {
	var opts []Option
	if p.Transport != nil {
		opts = append(opts, WithDialer(p.Transport))
	}
	if p.Acceptor != nil {
		opts = append(opts, WithTimerCanceler(p.Acceptor.Expirer()))
	}
	if p.Reporter != nil {
		opts = append(opts, WithReporter(p.Reporter))
	}
	return NewBinder(p.Index, opts...)
}

type lifecycleInput struct {
	fx.In

	LC     fx.Lifecycle
	Binder *Binder
	Bus    pkgif.EventBus `optional:"true"`
}

// registerLifecycle 注入了事件总线时在后台运行 Watch
func registerLifecycle(in lifecycleInput) {
	if in.Bus == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	in.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := in.Binder.Watch(ctx, in.Bus); err != nil {
					logger.Error("session watch stopped", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			wg.Wait()
			return nil
		},
	})
}
