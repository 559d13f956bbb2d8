package session

import "errors"

var (
	// ErrNotRegistered 编号没有对应的在用条目
	ErrNotRegistered = errors.New("session: peer not registered")

	// ErrPeerDisabled 对端处于管理关闭状态
	ErrPeerDisabled = errors.New("session: peer administratively disabled")
)
