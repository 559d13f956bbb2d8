package session

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/dep2p/go-bgpd/internal/core/metrics"
	"github.com/dep2p/go-bgpd/internal/core/peerindex"
	pkgif "github.com/dep2p/go-bgpd/pkg/interfaces"
	"github.com/dep2p/go-bgpd/pkg/lib/log"
	"github.com/dep2p/go-bgpd/pkg/types"
)

var logger = log.Logger("core/session")

// Dialer 出站拨号
type Dialer interface {
	Dial(ctx context.Context, addr types.Address) (net.Conn, error)
}

// TimerCanceler 取消暂存连接的期限定时器
type TimerCanceler interface {
	Cancel(stagedID string)
}

// Result 激活结果
type Result uint8

const (
	// Passive 没有暂存连接也没有拨号器，等待入站连接
	Passive Result = iota
	// Inbound 接管了暂存的入站连接
	Inbound
	// Outbound 发起了出站连接
	Outbound
)

func (r Result) String() string {
	switch r {
	case Inbound:
		return "inbound"
	case Outbound:
		return "outbound"
	default:
		return "passive"
	}
}

type binding struct {
	peer    pkgif.Peer
	session pkgif.Session
}

// Binder 把会话绑定到对端索引条目并交付连接
type Binder struct {
	index    *peerindex.Index
	dialer   Dialer
	timers   TimerCanceler
	reporter metrics.Reporter

	mu     sync.Mutex
	active map[types.PeerID]binding
}

// Option Binder 构造选项
type Option func(*Binder)

// WithDialer 没有暂存连接时使用的出站拨号器
func WithDialer(d Dialer) Option {
	return func(b *Binder) {
		b.dialer = d
	}
}

// WithTimerCanceler 接管暂存连接后取消其期限定时器
func WithTimerCanceler(c TimerCanceler) Option {
	return func(b *Binder) {
		b.timers = c
	}
}

// WithReporter 注入指标 Reporter
func WithReporter(r metrics.Reporter) Option {
	return func(b *Binder) {
		b.reporter = r
	}
}

// NewBinder 创建会话绑定器
func NewBinder(ix *peerindex.Index, opts ...Option) *Binder {
	b := &Binder{
		index:    ix,
		reporter: metrics.NopReporter{},
		active:   make(map[types.PeerID]binding),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Activate 激活会话
//
// id 与 peer 必须对应在用条目，否则对端索引以不变量错误 panic。
// 等价于 Bind 之后调用 Connect。
func (b *Binder) Activate(ctx context.Context, id types.PeerID, peer pkgif.Peer, session pkgif.Session) (Result, error) {
	view, err := b.Bind(id, peer, session)
	if err != nil {
		return Passive, err
	}
	return b.Connect(ctx, view)
}

// Bind 把会话记录到索引条目并登记为已激活
//
// Bind 不做 I/O，调用方可以在自己的锁内调用它，与注销互斥。
// 对端处于关闭状态时会话仍被登记，返回 ErrPeerDisabled。
func (b *Binder) Bind(id types.PeerID, peer pkgif.Peer, session pkgif.Session) (peerindex.EntryView, error) {
	b.index.SetSession(id, peer, session)

	view, ok := b.index.SeekID(id)
	if !ok {
		return view, ErrNotRegistered
	}

	b.mu.Lock()
	b.active[id] = binding{peer: peer, session: session}
	b.mu.Unlock()

	if view.Disabled {
		return view, ErrPeerDisabled
	}
	return view, nil
}

// Connect 为已绑定的会话交付连接
//
// 优先接管暂存的入站连接；没有暂存连接时使用拨号器。
// 绑定在此期间被解除时返回 ErrNotRegistered。
func (b *Binder) Connect(ctx context.Context, view peerindex.EntryView) (Result, error) {
	bd, ok := b.lookup(view.ID)
	if !ok {
		return Passive, ErrNotRegistered
	}

	if staged, ok := b.index.AdoptAccepted(view.Address); ok {
		if staged.PeerID != view.ID {
			// 地址已被注销并重新注册给另一个条目，连接归新条目的会话
			if other, ok := b.lookup(staged.PeerID); ok {
				if err := b.attach(other.session, staged, view.Address); err != nil {
					logger.Warn("attach staged connection failed", "addr", view.Address, "err", err)
				}
			} else {
				_ = staged.Conn.Close()
			}
			return Passive, ErrNotRegistered
		}
		return Inbound, b.attach(bd.session, staged, view.Address)
	}

	if b.dialer == nil {
		logger.Debug("session waiting for inbound connection", "addr", view.Address, "id", view.ID)
		return Passive, nil
	}

	conn, err := b.dialer.Dial(ctx, view.Address)
	if err != nil {
		return Outbound, fmt.Errorf("session: dial %s: %w", view.Address, err)
	}
	if err := bd.session.Attach(conn, false); err != nil {
		_ = conn.Close()
		return Outbound, err
	}
	b.reporter.SessionAttached(false)
	logger.Debug("outbound connection attached", "addr", view.Address, "id", view.ID)
	return Outbound, nil
}

// Deactivate 解除会话绑定
//
// 必须在 Deregister 之前调用。
func (b *Binder) Deactivate(id types.PeerID, peer pkgif.Peer) {
	b.mu.Lock()
	delete(b.active, id)
	b.mu.Unlock()

	b.index.SetSession(id, peer, nil)
}

// Active 返回已激活的会话数
func (b *Binder) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.active)
}

// attach 把暂存连接交给会话
func (b *Binder) attach(session pkgif.Session, staged *peerindex.StagedConn, addr types.Address) error {
	if b.timers != nil {
		b.timers.Cancel(staged.ID)
	}
	if err := session.Attach(staged.Conn, true); err != nil {
		_ = staged.Conn.Close()
		return err
	}
	b.reporter.SessionAttached(true)
	logger.Debug("staged connection adopted", "addr", addr, "staged", staged.ID)
	return nil
}

// Watch 订阅入站暂存事件，把连接交给已激活的会话
//
// 阻塞直到 ctx 取消或订阅关闭。
func (b *Binder) Watch(ctx context.Context, bus pkgif.EventBus) error {
	sub, err := bus.Subscribe(new(types.EvtConnectionStaged))
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-sub.Out():
			if !ok {
				return nil
			}
			b.handleStaged(evt.(types.EvtConnectionStaged))
		}
	}
}

func (b *Binder) handleStaged(e types.EvtConnectionStaged) {
	// 事件只是提示：连接可能已被接管或替换，以索引当前状态为准
	v, ok := b.index.SeekEntry(e.Address)
	if !ok || !v.HasStaged() || !b.isActive(v.ID) {
		return
	}

	staged, ok := b.index.AdoptAccepted(e.Address)
	if !ok {
		return
	}

	bd, ok := b.lookup(staged.PeerID)
	if !ok {
		// 查询与接管之间条目被注销
		_ = staged.Conn.Close()
		return
	}
	if err := b.attach(bd.session, staged, e.Address); err != nil {
		logger.Warn("attach staged connection failed", "addr", e.Address, "err", err)
	}
}

func (b *Binder) isActive(id types.PeerID) bool {
	_, ok := b.lookup(id)
	return ok
}

func (b *Binder) lookup(id types.PeerID) (binding, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bd, ok := b.active[id]
	return bd, ok
}
