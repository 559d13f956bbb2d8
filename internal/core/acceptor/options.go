package acceptor

import (
	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-bgpd/internal/core/connmgr/gater"
	"github.com/dep2p/go-bgpd/internal/core/metrics"
	pkgif "github.com/dep2p/go-bgpd/pkg/interfaces"
)

// Option Adapter 构造选项
type Option func(*Adapter)

// WithClock 注入时钟（速率限制与期限定时器共用）
func WithClock(c clock.Clock) Option {
	return func(a *Adapter) {
		a.clock = c
	}
}

// WithGater 替换由配置网段构造的门控器
func WithGater(g *gater.Gater) Option {
	return func(a *Adapter) {
		a.gater = g
	}
}

// WithReporter 注入指标 Reporter
func WithReporter(r metrics.Reporter) Option {
	return func(a *Adapter) {
		a.reporter = r
	}
}

// WithEventBus 暂存成功时在事件总线上发布 EvtConnectionStaged
func WithEventBus(bus pkgif.EventBus) Option {
	return func(a *Adapter) {
		a.bus = bus
	}
}
