package peerindex

import (
	"github.com/benbjohnson/clock"
)

// Option Index 构造选项
type Option func(*Index)

// WithClock 注入时钟（测试中使用 clock.NewMock）
func WithClock(c clock.Clock) Option {
	return func(ix *Index) {
		ix.clock = c
	}
}

// RegisterOption 注册选项
type RegisterOption func(*registerSettings)

type registerSettings struct {
	disabled bool
}

// WithDisabled 以管理关闭状态注册
//
// 对端从注册那一刻起就拒绝入站连接，不存在可被接纳的窗口。
func WithDisabled() RegisterOption {
	return func(s *registerSettings) {
		s.disabled = true
	}
}
