package peerindex

import (
	pkgif "github.com/dep2p/go-bgpd/pkg/interfaces"
	"github.com/dep2p/go-bgpd/pkg/types"
)

// ============================================================================
//                              条目与条目池
// ============================================================================

// slotState 槽位状态
type slotState uint8

const (
	slotFree slotState = iota
	slotInUse
)

// noSlot 空闲链表结束标记
const noSlot = -1

// entry 一个对端槽位
//
// 槽位下标一经分配就不再变化，id == 下标 + 1。
// 池增长会重新分配底层数组，因此任何地方都只保存下标，不保存 *entry。
type entry struct {
	id    types.PeerID
	state slotState
	next  int // 空闲时指向下一个空闲槽位

	peer     pkgif.Peer
	addr     types.Address
	session  pkgif.Session
	disabled bool
	staged   *StagedConn
}

// pool 条目池 + 编号分配器
//
// 空闲槽位按栈组织：release 压栈，allocate 出栈，均为 O(1)。
// 初始和每次增长的新槽位按编号顺序链入。
// 非并发安全，由 Index 的锁保护。
type pool struct {
	slots    []entry
	freeHead int
	nfree    int
	batch    int
	limit    int
	grows    int
}

// newPool 创建条目池，所有槽位初始为空闲
func newPool(initial, batch, limit int) *pool {
	p := &pool{
		freeHead: noSlot,
		batch:    batch,
		limit:    limit,
	}
	if initial > 0 {
		p.extend(initial)
	}
	return p
}

// extend 追加 n 个空闲槽位并链入空闲链表头部
func (p *pool) extend(n int) {
	base := len(p.slots)
	p.slots = append(p.slots, make([]entry, n)...)

	for i := base + n - 1; i >= base; i-- {
		p.slots[i] = entry{
			id:    types.PeerIDFromIndex(i),
			state: slotFree,
			next:  p.freeHead,
		}
		p.freeHead = i
	}
	p.nfree += n
}

// grow 空闲链表为空时按批增长
func (p *pool) grow() {
	n := p.batch
	if room := p.limit - len(p.slots); n > room {
		n = room
	}
	if n <= 0 {
		violate("allocate", ErrPoolExhausted, "capacity %d reached", p.limit)
	}

	p.extend(n)
	p.grows++
}

// allocate 弹出一个空闲槽位
func (p *pool) allocate() int {
	if p.freeHead == noSlot {
		p.grow()
	}

	idx := p.freeHead
	e := &p.slots[idx]
	p.freeHead = e.next
	e.next = noSlot
	p.nfree--
	return idx
}

// release 清空槽位并压回空闲链表
func (p *pool) release(idx int) {
	p.slots[idx] = entry{
		id:    p.slots[idx].id,
		state: slotFree,
		next:  p.freeHead,
	}
	p.freeHead = idx
	p.nfree++
}

// at 按编号取槽位下标，越界返回 false
func (p *pool) at(id types.PeerID) (int, bool) {
	idx := id.Index()
	if idx < 0 || idx >= len(p.slots) {
		return 0, false
	}
	return idx, true
}

// capacity 槽位总数
func (p *pool) capacity() int {
	return len(p.slots)
}

// inUse 在用槽位数
func (p *pool) inUse() int {
	return len(p.slots) - p.nfree
}
