package peerindex

import (
	pkgif "github.com/dep2p/go-bgpd/pkg/interfaces"
	"github.com/dep2p/go-bgpd/pkg/types"
)

// EntryView 条目的只读拷贝
//
// 供管理/诊断查询与接纳路径使用；拷贝之后与索引不再关联。
type EntryView struct {
	ID       types.PeerID
	Peer     pkgif.Peer
	Address  types.Address
	Session  pkgif.Session
	Disabled bool

	// Staged 暂存连接摘要，没有暂存连接时为 nil
	Staged *StagedInfo
}

// HasStaged 是否有暂存连接
func (v EntryView) HasStaged() bool {
	return v.Staged != nil
}

func (e *entry) view() EntryView {
	v := EntryView{
		ID:       e.id,
		Peer:     e.peer,
		Address:  e.addr,
		Session:  e.session,
		Disabled: e.disabled,
	}
	if e.staged != nil {
		v.Staged = e.staged.info()
	}
	return v
}

// Stats 索引统计
type Stats struct {
	// Capacity 槽位总数
	Capacity int

	// InUse 在用槽位数
	InUse int

	// Free 空闲槽位数
	Free int

	// Staged 暂存连接数
	Staged int

	// Grows 池增长次数
	Grows int
}
