package bgpd

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-bgpd/config"
	"github.com/dep2p/go-bgpd/internal/core/acceptor"
	"github.com/dep2p/go-bgpd/internal/core/eventbus"
	"github.com/dep2p/go-bgpd/internal/core/metrics"
	"github.com/dep2p/go-bgpd/internal/core/peerindex"
	"github.com/dep2p/go-bgpd/internal/core/session"
	"github.com/dep2p/go-bgpd/internal/core/transport/tcp"
	pkgif "github.com/dep2p/go-bgpd/pkg/interfaces"
	"github.com/dep2p/go-bgpd/pkg/lib/log"
	"github.com/dep2p/go-bgpd/pkg/types"
)

var fxLogger = log.Logger("bgpd/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置注入、事件总线
//  2. 对端索引（容量由配置或系统参数推导）
//  3. 指标（Reporter 始终提供，HTTP 暴露按配置）
//  4. TCP 传输、接纳适配器、会话绑定
func buildFxApp(cfg *config.Config, o *options, d *Daemon) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 核心模块
	// ════════════════════════════════════════════════════════════════════════
	modules := []fx.Option{
		fx.Supply(cfg),
		eventbus.Module(),
		peerindex.Module(),
		metrics.Module(),
	}

	if o.clock != nil {
		clk := o.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}
	if o.sysParams != nil {
		modules = append(modules, fx.Supply(o.sysParams))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 3. 传输与接纳
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		tcp.Module(),
		acceptor.Module(),
		session.Module(),
	)

	// ════════════════════════════════════════════════════════════════════════
	// 4. 用户扩展（Fx Options）
	// ════════════════════════════════════════════════════════════════════════
	if len(o.userFxOptions) > 0 {
		modules = append(modules, o.userFxOptions...)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 5. Daemon 组件注入
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		fx.Invoke(injectDaemonComponents(d)),
		fxLoggerOption(o.fxDebug),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build daemon: %w", err)
	}
	return app, nil
}

// fxLoggerOption Fx 事件日志
//
// 默认丢弃，调试时输出到 zap 开发日志。
func fxLoggerOption(debug bool) fx.Option {
	if !debug {
		return fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		})
	}
	return fx.WithLogger(func() (fxevent.Logger, error) {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		fxLogger.Debug("Fx 事件日志已启用")
		return &fxevent.ZapLogger{Logger: l}, nil
	})
}

// ════════════════════════════════════════════════════════════════════════════
// 组件注入辅助函数
// ════════════════════════════════════════════════════════════════════════════

// daemonInjectParams Daemon 组件注入参数
type daemonInjectParams struct {
	fx.In

	Index     *peerindex.Index
	EventBus  pkgif.EventBus
	Adapter   *acceptor.Adapter
	Binder    *session.Binder
	Transport *tcp.Transport
}

// injectDaemonComponents 创建 Daemon 组件注入函数
func injectDaemonComponents(d *Daemon) interface{} {
	return func(p daemonInjectParams) error {
		d.index = p.Index
		d.bus = p.EventBus
		d.adapter = p.Adapter
		d.binder = p.Binder
		d.transport = p.Transport

		var err error
		if d.registered, err = p.EventBus.Emitter(new(types.EvtPeerRegistered)); err != nil {
			return err
		}
		if d.deregistered, err = p.EventBus.Emitter(new(types.EvtPeerDeregistered)); err != nil {
			return err
		}
		return nil
	}
}
