package tcp

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-bgpd/config"
)

// Params TCP 传输依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("transport/tcp",
		fx.Provide(
			ProvideConfig,
			ProvideTransport,
		),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideConfig 从统一配置提供传输配置
func ProvideConfig(p Params) Config {
	return ConfigFromUnified(p.UnifiedCfg)
}

// ProvideTransport 提供 TCP 传输实例
func ProvideTransport(cfg Config) *Transport {
	return NewTransport(cfg)
}

// registerLifecycle 注册生命周期钩子
func registerLifecycle(lc fx.Lifecycle, t *Transport) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return t.Close()
		},
	})
}
