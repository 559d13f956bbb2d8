package bgpd

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-bgpd/config"
	"github.com/dep2p/go-bgpd/internal/core/acceptor"
	"github.com/dep2p/go-bgpd/internal/core/peerindex"
	"github.com/dep2p/go-bgpd/internal/core/session"
	"github.com/dep2p/go-bgpd/internal/core/transport/tcp"
	pkgif "github.com/dep2p/go-bgpd/pkg/interfaces"
	"github.com/dep2p/go-bgpd/pkg/lib/log"
	"github.com/dep2p/go-bgpd/pkg/types"
)

var logger = log.Logger("bgpd")

// ════════════════════════════════════════════════════════════════════════════
//                              守护进程状态
// ════════════════════════════════════════════════════════════════════════════

// State 守护进程状态
type State int

const (
	// StateIdle 已创建，未启动
	StateIdle State = iota

	// StateRunning 运行中
	StateRunning

	// StateClosed 已关闭
	StateClosed
)

// String 返回状态的字符串表示
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const (
	// startTimeout Fx App 启动超时
	startTimeout = 30 * time.Second

	// stopTimeout Fx App 停止超时
	stopTimeout = 10 * time.Second
)

// ════════════════════════════════════════════════════════════════════════════
//                              Daemon
// ════════════════════════════════════════════════════════════════════════════

// Daemon BGP 对端索引守护进程
type Daemon struct {
	cfg *config.Config
	app *fx.App

	// 由 Fx 注入
	index        *peerindex.Index
	bus          pkgif.EventBus
	adapter      *acceptor.Adapter
	binder       *session.Binder
	transport    *tcp.Transport
	registered   pkgif.Emitter
	deregistered pkgif.Emitter

	mu        sync.Mutex
	state     State
	neighbors map[types.Address]*Neighbor
}

// New 创建守护进程
//
// cfg 为 nil 时使用默认配置。New 只构建组件，不监听端口；
// 配置的邻居在 Start 时注册。
func New(cfg *config.Config, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}

	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	d := &Daemon{
		cfg:       cfg,
		neighbors: make(map[types.Address]*Neighbor),
	}

	app, err := buildFxApp(cfg, o, d)
	if err != nil {
		return nil, err
	}
	d.app = app
	return d, nil
}

// Start 启动守护进程
//
// 先注册配置的邻居，再启动监听；监听开始时所有配置的邻居都已可被接纳。
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	switch d.state {
	case StateRunning:
		d.mu.Unlock()
		return ErrAlreadyStarted
	case StateClosed:
		d.mu.Unlock()
		return ErrDaemonClosed
	}
	d.mu.Unlock()

	added := make([]*Neighbor, 0, len(d.cfg.Neighbors))
	for _, nc := range d.cfg.Neighbors {
		n, err := d.AddNeighbor(nc)
		if err != nil {
			// 撤销已注册的邻居，守护进程保持 idle，可以重试
			d.removeNeighbors(added)
			return fmt.Errorf("register neighbor %s: %w", nc.Address, err)
		}
		added = append(added, n)
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := d.app.Start(startCtx); err != nil {
		// Fx 已回滚启动成功的组件，守护进程不可再用
		d.mu.Lock()
		d.state = StateClosed
		d.mu.Unlock()
		err = multierr.Append(err, d.closeEmitters())
		logger.Error("守护进程启动失败", "error", err)
		return fmt.Errorf("start failed: %w", err)
	}

	d.mu.Lock()
	d.state = StateRunning
	n := len(d.neighbors)
	d.mu.Unlock()

	logger.Info("守护进程已启动", "neighbors", n, "listen", d.ListenAddrs())
	return nil
}

// Close 关闭守护进程
//
// 停止接受循环与期限定时器，关闭所有暂存连接并结束对端索引。
// 重复调用返回 nil。
func (d *Daemon) Close() error {
	d.mu.Lock()
	if d.state == StateClosed {
		d.mu.Unlock()
		return nil
	}
	d.state = StateClosed
	d.mu.Unlock()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	err := multierr.Append(d.app.Stop(stopCtx), d.closeEmitters())
	if err != nil {
		logger.Warn("守护进程关闭出错", "error", err)
		return err
	}
	logger.Info("守护进程已关闭")
	return nil
}

// closeEmitters 关闭邻居事件发射器
func (d *Daemon) closeEmitters() error {
	return multierr.Combine(d.registered.Close(), d.deregistered.Close())
}

// State 返回当前状态
func (d *Daemon) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Index 返回对端索引
func (d *Daemon) Index() *peerindex.Index {
	return d.index
}

// EventBus 返回事件总线
func (d *Daemon) EventBus() pkgif.EventBus {
	return d.bus
}

// Acceptor 返回接纳适配器
func (d *Daemon) Acceptor() *acceptor.Adapter {
	return d.adapter
}

// ListenAddrs 返回实际监听地址
func (d *Daemon) ListenAddrs() []net.Addr {
	return d.transport.ListenAddrs()
}

// ════════════════════════════════════════════════════════════════════════════
//                              邻居管理
// ════════════════════════════════════════════════════════════════════════════

// AddNeighbor 注册邻居
//
// 地址已配置时返回 ErrNeighborExists。配置为 shutdown 的邻居以关闭状态
// 注册，其入站连接从一开始就被拒绝。
func (d *Daemon) AddNeighbor(nc config.NeighborConfig) (*Neighbor, error) {
	if err := nc.Validate(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	if d.state == StateClosed {
		d.mu.Unlock()
		return nil, ErrDaemonClosed
	}
	n := newNeighbor(nc)
	if _, ok := d.neighbors[n.addr]; ok {
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNeighborExists, n.addr)
	}

	var opts []peerindex.RegisterOption
	if n.shutdown {
		opts = append(opts, peerindex.WithDisabled())
	}
	n.id = d.index.Register(n, n.addr, opts...)
	d.neighbors[n.addr] = n
	d.mu.Unlock()

	_ = d.registered.Emit(types.EvtPeerRegistered{
		PeerID:   n.id,
		Address:  n.addr,
		Disabled: n.shutdown,
	})
	logger.Info("邻居已注册", "addr", n.addr, "id", n.id, "name", n.Name(), "shutdown", n.shutdown)
	return n, nil
}

// RemoveNeighbor 注销邻居
//
// 先解除会话绑定再注销；暂存在该邻居上的连接被关闭。
func (d *Daemon) RemoveNeighbor(addr types.Address) error {
	d.mu.Lock()
	n, ok := d.neighbors[addr]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownNeighbor, addr)
	}
	delete(d.neighbors, addr)
	d.binder.Deactivate(n.id, n)
	d.index.Deregister(n, n.addr)
	d.mu.Unlock()

	_ = d.deregistered.Emit(types.EvtPeerDeregistered{
		PeerID:  n.id,
		Address: n.addr,
	})
	logger.Info("邻居已注销", "addr", n.addr, "id", n.id)
	return nil
}

// removeNeighbors 注销一组邻居，跳过已不在册的
func (d *Daemon) removeNeighbors(ns []*Neighbor) {
	for _, n := range ns {
		if err := d.RemoveNeighbor(n.addr); err != nil {
			logger.Debug("回滚邻居注册", "addr", n.addr, "error", err)
		}
	}
}

// SetShutdown 设置邻居的管理关闭状态
func (d *Daemon) SetShutdown(addr types.Address, shutdown bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.neighbors[addr]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNeighbor, addr)
	}
	d.index.SetDisabled(n.id, n, shutdown)
	n.shutdown = shutdown
	return nil
}

// Neighbor 按地址查找邻居
func (d *Daemon) Neighbor(addr types.Address) (*Neighbor, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.neighbors[addr]
	return n, ok
}

// Neighbors 返回所有邻居，按编号排序
func (d *Daemon) Neighbors() []*Neighbor {
	d.mu.Lock()
	out := make([]*Neighbor, 0, len(d.neighbors))
	for _, n := range d.neighbors {
		out = append(out, n)
	}
	d.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Activate 为邻居激活会话
//
// 接管暂存的入站连接；没有暂存连接时主动拨号。
// 邻居已被注销（或不是由本守护进程创建）时返回 ErrUnknownNeighbor。
func (d *Daemon) Activate(ctx context.Context, n *Neighbor, s pkgif.Session) (session.Result, error) {
	d.mu.Lock()
	if d.state != StateRunning {
		d.mu.Unlock()
		return session.Passive, ErrNotStarted
	}
	if !d.ownsLocked(n) {
		d.mu.Unlock()
		return session.Passive, unknownNeighbor(n)
	}
	// 绑定与 RemoveNeighbor 互斥；拨号在锁外进行
	view, err := d.binder.Bind(n.id, n, s)
	d.mu.Unlock()
	if err != nil {
		return session.Passive, err
	}
	return d.binder.Connect(ctx, view)
}

// Deactivate 解除邻居的会话绑定
//
// 邻居已被注销时返回 ErrUnknownNeighbor。
func (d *Daemon) Deactivate(n *Neighbor) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.ownsLocked(n) {
		return unknownNeighbor(n)
	}
	d.binder.Deactivate(n.id, n)
	return nil
}

// ownsLocked 邻居是否仍在本守护进程中注册（持锁调用）
func (d *Daemon) ownsLocked(n *Neighbor) bool {
	return n != nil && d.neighbors[n.addr] == n
}

func unknownNeighbor(n *Neighbor) error {
	if n == nil {
		return ErrUnknownNeighbor
	}
	return fmt.Errorf("%w: %s", ErrUnknownNeighbor, n.addr)
}
