package peerindex

import (
	"net"
	"reflect"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	pkgif "github.com/dep2p/go-bgpd/pkg/interfaces"
	"github.com/dep2p/go-bgpd/pkg/lib/log"
	"github.com/dep2p/go-bgpd/pkg/types"
)

var logger = log.Logger("core/peerindex")

// 确保实现了接口
var _ pkgif.PeerIndex = (*Index)(nil)

// Index 对端索引
//
// 所有状态（条目池、地址索引、空闲链表、暂存连接）由一把锁保护，
// 每个操作只在自身执行期间持锁：持锁期间不调用 Peer/Session 的方法，
// 不做 I/O，不等待其他上下文。被替换或丢弃的连接在释放锁之后关闭。
type Index struct {
	mu sync.Mutex

	pool   *pool
	byAddr map[types.Address]int
	staged int

	stageTimeout time.Duration
	clock        clock.Clock
	finished     bool
}

// New 创建对端索引
//
// 对应一次性的 init：必须在任何并发引擎启动之前调用。
// 所有槽位初始为空闲，按编号顺序链入空闲链表。
func New(cfg Config, opts ...Option) *Index {
	cfg = cfg.normalize()

	ix := &Index{
		pool:         newPool(cfg.InitialCapacity, cfg.GrowBatch, cfg.MaxCapacity),
		byAddr:       make(map[types.Address]int, cfg.InitialCapacity),
		stageTimeout: cfg.StageTimeout,
		clock:        clock.New(),
	}
	for _, opt := range opts {
		opt(ix)
	}

	logger.Debug("peer index created",
		"capacity", cfg.InitialCapacity,
		"growBatch", cfg.GrowBatch,
		"maxCapacity", cfg.MaxCapacity,
		"stageTimeout", cfg.StageTimeout)
	return ix
}

// ============================================================================
//                              注册 / 注销
// ============================================================================

// Register 注册对端，返回新分配的编号
//
// addr 不得已映射到在用条目，否则 panic（*InvariantError，ErrDuplicateAddress）：
// 这说明调用方重复配置了同一个邻居。
// peer 的动态类型必须可比较（ErrIncomparablePeer），之后的归属校验用 == 比较。
// 返回的编号永远不为 NullPeerID。
func (ix *Index) Register(peer pkgif.Peer, addr types.Address, opts ...RegisterOption) types.PeerID {
	if peer == nil {
		violate("register", ErrNilPeer, "addr %s", addr)
	}
	if t := reflect.TypeOf(peer); !t.Comparable() {
		violate("register", ErrIncomparablePeer, "type %s", t)
	}
	if !addr.IsValid() {
		violate("register", ErrInvalidAddress, "peer %s", peer.Name())
	}

	var s registerSettings
	for _, opt := range opts {
		opt(&s)
	}

	id, grew := ix.register(peer, addr, s.disabled)

	if grew {
		logger.Info("entry pool grown", "capacity", ix.Stats().Capacity)
	}
	logger.Debug("peer registered", "addr", addr, "id", id, "disabled", s.disabled)
	return id
}

func (ix *Index) register(peer pkgif.Peer, addr types.Address, disabled bool) (types.PeerID, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.finished {
		violate("register", ErrFinished, "addr %s", addr)
	}
	if idx, dup := ix.byAddr[addr]; dup {
		violate("register", ErrDuplicateAddress, "addr %s held by id %d", addr, ix.pool.slots[idx].id)
	}

	grows := ix.pool.grows
	idx := ix.pool.allocate()

	e := &ix.pool.slots[idx]
	e.state = slotInUse
	e.peer = peer
	e.addr = addr
	e.disabled = disabled
	ix.byAddr[addr] = idx

	return e.id, ix.pool.grows != grows
}

// Deregister 注销对端
//
// addr 必须映射到在用条目，且记录的 peer 与参数一致，否则 panic
// （*InvariantError，ErrEntryMismatch）。
// 暂存连接随之丢弃并关闭，槽位回到空闲链表。
func (ix *Index) Deregister(peer pkgif.Peer, addr types.Address) {
	id, staged := ix.deregister(peer, addr)

	_ = closeStaged(staged, "deregistered")
	logger.Debug("peer deregistered", "addr", addr, "id", id)
}

func (ix *Index) deregister(peer pkgif.Peer, addr types.Address) (types.PeerID, *StagedConn) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	idx, ok := ix.byAddr[addr]
	if !ok {
		violate("deregister", ErrEntryMismatch, "addr %s not registered", addr)
	}
	e := &ix.pool.slots[idx]
	if e.state != slotInUse || e.peer != peer {
		violate("deregister", ErrEntryMismatch, "addr %s registered to another peer (id %d)", addr, e.id)
	}

	id := e.id
	staged := ix.takeStaged(e)
	delete(ix.byAddr, addr)
	ix.pool.release(idx)

	return id, staged
}

// ============================================================================
//                              查询
// ============================================================================

// Seek 按地址查找对端
//
// 找不到是正常结果，不是错误。
func (ix *Index) Seek(addr types.Address) (pkgif.Peer, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	idx, ok := ix.byAddr[addr]
	if !ok {
		return nil, false
	}
	return ix.pool.slots[idx].peer, true
}

// SeekEntry 按地址查找条目，返回值拷贝
func (ix *Index) SeekEntry(addr types.Address) (EntryView, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	idx, ok := ix.byAddr[addr]
	if !ok {
		return EntryView{}, false
	}
	return ix.pool.slots[idx].view(), true
}

// SeekID 按编号查找在用条目
//
// 空编号、越界编号或空闲槽位均返回 false。
func (ix *Index) SeekID(id types.PeerID) (EntryView, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	idx, ok := ix.pool.at(id)
	if !ok || ix.pool.slots[idx].state != slotInUse {
		return EntryView{}, false
	}
	return ix.pool.slots[idx].view(), true
}

// Peers 返回所有在用条目的快照，按编号升序
func (ix *Index) Peers() []EntryView {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	out := make([]EntryView, 0, ix.pool.inUse())
	for i := range ix.pool.slots {
		if ix.pool.slots[i].state == slotInUse {
			out = append(out, ix.pool.slots[i].view())
		}
	}
	return out
}

// Len 返回在用条目数
func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.pool.inUse()
}

// Stats 返回索引统计
func (ix *Index) Stats() Stats {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	return Stats{
		Capacity: ix.pool.capacity(),
		InUse:    ix.pool.inUse(),
		Free:     ix.pool.nfree,
		Staged:   ix.staged,
		Grows:    ix.pool.grows,
	}
}

// ============================================================================
//                              入站接纳
// ============================================================================

// SeekAccept 入站连接接纳（热路径）
//
// 地址未注册或对端处于管理关闭状态时返回 false，不产生任何副作用，
// 调用方应立即关闭连接；两种情况对外不可区分。
// 否则把 conn 暂存到条目上并返回暂存记录，原先暂存的连接被替换并关闭。
func (ix *Index) SeekAccept(addr types.Address, conn net.Conn) (*StagedConn, bool) {
	staged := &StagedConn{
		ID:      uuid.NewString(),
		Conn:    conn,
		Address: addr,
	}
	if conn != nil && conn.RemoteAddr() != nil {
		staged.RemoteAddr = conn.RemoteAddr().String()
	}

	superseded, ok := ix.seekAccept(staged)
	if !ok {
		return nil, false
	}

	if superseded != nil {
		_ = closeStaged(superseded, "superseded")
	}
	return staged, true
}

func (ix *Index) seekAccept(staged *StagedConn) (*StagedConn, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.finished {
		return nil, false
	}
	idx, ok := ix.byAddr[staged.Address]
	if !ok {
		return nil, false
	}
	e := &ix.pool.slots[idx]
	if e.disabled {
		return nil, false
	}

	now := ix.clock.Now()
	staged.PeerID = e.id
	staged.AcceptedAt = now
	staged.Deadline = now.Add(ix.stageTimeout)

	superseded := ix.takeStaged(e)
	e.staged = staged
	ix.staged++

	return superseded, true
}

// AdoptAccepted 接管地址上暂存的连接
//
// 每条暂存连接至多被接管一次；接管后所有权转移给调用方。
func (ix *Index) AdoptAccepted(addr types.Address) (*StagedConn, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	idx, ok := ix.byAddr[addr]
	if !ok {
		return nil, false
	}
	staged := ix.takeStaged(&ix.pool.slots[idx])
	return staged, staged != nil
}

// DiscardStaged 丢弃过期的暂存连接
//
// 由外部定时器调用。仅当 staged 仍是该地址当前暂存的连接时才丢弃并关闭，
// 已被接管、替换或随注销丢弃的连接返回 false。
func (ix *Index) DiscardStaged(addr types.Address, staged *StagedConn) bool {
	if staged == nil {
		return false
	}

	ix.mu.Lock()
	idx, ok := ix.byAddr[addr]
	if !ok || ix.pool.slots[idx].staged != staged {
		ix.mu.Unlock()
		return false
	}
	ix.takeStaged(&ix.pool.slots[idx])
	ix.mu.Unlock()

	_ = closeStaged(staged, "expired")
	return true
}

// takeStaged 摘下条目上的暂存连接（持锁调用）
func (ix *Index) takeStaged(e *entry) *StagedConn {
	staged := e.staged
	if staged != nil {
		e.staged = nil
		ix.staged--
	}
	return staged
}

// ============================================================================
//                              会话绑定 / 管理状态
// ============================================================================

// SetSession 把会话绑定到已知属于 peer 的条目
//
// 不做地址查找：调用方已持有编号。编号越界 panic（ErrPeerIDRange），
// 条目空闲或记录的 peer 不一致 panic（ErrEntryMismatch）。
// 不会自动接管暂存连接，调用方随后应调用 AdoptAccepted。
func (ix *Index) SetSession(id types.PeerID, peer pkgif.Peer, session pkgif.Session) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	e := ix.mustEntry("set_session", id, peer)
	e.session = session
}

// SetDisabled 设置管理关闭状态
//
// 关闭时丢弃并关闭已暂存的连接。
func (ix *Index) SetDisabled(id types.PeerID, peer pkgif.Peer, disabled bool) {
	staged := ix.setDisabled(id, peer, disabled)

	_ = closeStaged(staged, "disabled")
	logger.Debug("peer admin state changed", "id", id, "disabled", disabled)
}

func (ix *Index) setDisabled(id types.PeerID, peer pkgif.Peer, disabled bool) *StagedConn {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	e := ix.mustEntry("set_disabled", id, peer)
	e.disabled = disabled
	if disabled {
		return ix.takeStaged(e)
	}
	return nil
}

// mustEntry 按编号取在用且属于 peer 的条目（持锁调用）
func (ix *Index) mustEntry(op string, id types.PeerID, peer pkgif.Peer) *entry {
	idx, ok := ix.pool.at(id)
	if !ok {
		violate(op, ErrPeerIDRange, "id %d, capacity %d", id, ix.pool.capacity())
	}
	e := &ix.pool.slots[idx]
	if e.state != slotInUse || e.peer != peer {
		violate(op, ErrEntryMismatch, "id %d", id)
	}
	return e
}

// ============================================================================
//                              关闭
// ============================================================================

// Finish 关闭索引
//
// 对应一次性的 finish：在所有并发引擎停止之后调用。
// 关闭所有暂存连接；之后 SeekAccept 一律拒绝，Register 会 panic。
// 条目池本身不释放，查询仍可使用。
func (ix *Index) Finish() error {
	ix.mu.Lock()
	if ix.finished {
		ix.mu.Unlock()
		return nil
	}
	ix.finished = true

	var pending []*StagedConn
	for i := range ix.pool.slots {
		if s := ix.takeStaged(&ix.pool.slots[i]); s != nil {
			pending = append(pending, s)
		}
	}
	ix.mu.Unlock()

	var err error
	for _, s := range pending {
		err = multierr.Append(err, closeStaged(s, "finish"))
	}
	logger.Debug("peer index finished", "closed", len(pending))
	return err
}
