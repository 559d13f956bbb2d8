package peerindex

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-bgpd/config"
	"github.com/dep2p/go-bgpd/internal/core/sysparams"
	pkgif "github.com/dep2p/go-bgpd/pkg/interfaces"
)

// Params 对端索引依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config    `optional:"true"`
	SysParams  *sysparams.Params `optional:"true"`
	Clock      clock.Clock       `optional:"true"`
}

// Output 对端索引模块输出
type Output struct {
	fx.Out

	Index     *Index
	PeerIndex pkgif.PeerIndex
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("peerindex",
		fx.Provide(
			ProvideConfig,
			ProvideIndex,
		),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideConfig 从统一配置提供索引配置
//
// 未注入系统参数时现场探测；探测失败按最小容量启动。
func ProvideConfig(p Params) Config {
	var params sysparams.Params
	if p.SysParams != nil {
		params = *p.SysParams
	} else if probed, err := sysparams.Probe(); err == nil {
		params = probed
	} else {
		logger.Warn("system parameter probe failed, using minimum capacity", "err", err)
	}
	return ConfigFromUnified(p.UnifiedCfg, params)
}

// ProvideIndex 提供对端索引实例
func ProvideIndex(cfg Config, p Params) Output {
	var opts []Option
	if p.Clock != nil {
		opts = append(opts, WithClock(p.Clock))
	}
	ix := New(cfg, opts...)
	return Output{Index: ix, PeerIndex: ix}
}

// lifecycleInput 生命周期注册输入
type lifecycleInput struct {
	fx.In

	LC    fx.Lifecycle
	Index *Index
}

// registerLifecycle 注册生命周期钩子
//
// 索引在构造时已就绪；停止时关闭所有暂存连接。
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return input.Index.Finish()
		},
	})
}
