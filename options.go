package bgpd

import (
	"errors"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-bgpd/internal/core/sysparams"
)

// Option 守护进程配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// fxDebug 输出 Fx 事件日志
	fxDebug bool

	// clock 时钟（测试时注入 clock.Mock）
	clock clock.Clock

	// sysParams 预先探测的系统参数，nil 时启动阶段自行探测
	sysParams *sysparams.Params

	// userFxOptions 用户扩展的 Fx 选项
	userFxOptions []fx.Option
}

// WithFxDebug 输出 Fx 依赖注入事件日志
func WithFxDebug() Option {
	return func(o *options) error {
		o.fxDebug = true
		return nil
	}
}

// WithClock 设置时钟
func WithClock(c clock.Clock) Option {
	return func(o *options) error {
		if c == nil {
			return errors.New("clock is nil")
		}
		o.clock = c
		return nil
	}
}

// WithSysParams 使用给定的系统参数推导条目池容量
func WithSysParams(p sysparams.Params) Option {
	return func(o *options) error {
		o.sysParams = &p
		return nil
	}
}

// WithFxOptions 追加 Fx 选项
//
// 用于替换或装饰内部组件，例如注入 fx.Decorate。
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
