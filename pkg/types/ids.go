package types

import (
	"errors"
	"strconv"
)

// ============================================================================
//                              PeerID - 对端编号
// ============================================================================

// PeerID 对端编号
//
// PeerID 是对端索引槽位的序号（槽位下标 + 1），在一次注册的生命周期内稳定。
// 释放后的编号经空闲链表回收，之后可能分配给其他对端。
type PeerID uint32

// NullPeerID 空编号，永远不会被分配
const NullPeerID PeerID = 0

// MaxPeerID 可分配的最大编号
const MaxPeerID PeerID = ^PeerID(0) - 1

// ErrInvalidPeerID 无效的对端编号
var ErrInvalidPeerID = errors.New("invalid peer id")

// IsNull 是否为空编号
func (id PeerID) IsNull() bool {
	return id == NullPeerID
}

// Index 返回编号对应的槽位下标
//
// 对 NullPeerID 调用返回 -1。
func (id PeerID) Index() int {
	return int(id) - 1
}

// String 返回十进制表示
func (id PeerID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// PeerIDFromIndex 由槽位下标得到编号
func PeerIDFromIndex(index int) PeerID {
	return PeerID(index + 1)
}

// ParsePeerID 解析十进制编号
func ParsePeerID(s string) (PeerID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return NullPeerID, ErrInvalidPeerID
	}
	id := PeerID(n)
	if id.IsNull() || id > MaxPeerID {
		return NullPeerID, ErrInvalidPeerID
	}
	return id, nil
}
