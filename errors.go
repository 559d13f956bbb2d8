package bgpd

import "errors"

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 守护进程生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 守护进程未启动
	ErrNotStarted = errors.New("daemon not started")

	// ErrAlreadyStarted 守护进程已启动
	ErrAlreadyStarted = errors.New("daemon already started")

	// ErrDaemonClosed 守护进程已关闭
	ErrDaemonClosed = errors.New("daemon closed")

	// ────────────────────────────────────────────────────────────────────────
	// 邻居相关错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNeighborExists 地址已配置邻居
	ErrNeighborExists = errors.New("neighbor already configured")

	// ErrUnknownNeighbor 地址没有配置邻居
	ErrUnknownNeighbor = errors.New("unknown neighbor")
)
