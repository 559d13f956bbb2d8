package types

import (
	"time"
)

// ============================================================================
//                              对端索引事件
// ============================================================================

// EvtPeerRegistered 对端已注册
type EvtPeerRegistered struct {
	PeerID   PeerID
	Address  Address
	Disabled bool
}

// EvtPeerDeregistered 对端已注销
type EvtPeerDeregistered struct {
	PeerID  PeerID
	Address Address
}

// EvtConnectionStaged 入站连接已暂存，等待会话接管
//
// 会话引擎收到该事件后应调用 AdoptAccepted 接管连接。
// 事件只是提示：连接可能已在事件送达前被接管、替换或过期。
type EvtConnectionStaged struct {
	PeerID   PeerID
	Address  Address
	StagedID string
	Deadline time.Time
}
