package acceptor

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-bgpd/internal/core/connmgr/gater"
	"github.com/dep2p/go-bgpd/internal/core/metrics"
	"github.com/dep2p/go-bgpd/internal/core/peerindex"
	"github.com/dep2p/go-bgpd/internal/core/transport/tcp"
	pkgif "github.com/dep2p/go-bgpd/pkg/interfaces"
	"github.com/dep2p/go-bgpd/pkg/lib/log"
	"github.com/dep2p/go-bgpd/pkg/types"
)

var logger = log.Logger("core/acceptor")

// Listener 连接来源
type Listener interface {
	Accept() (net.Conn, error)
	Close() error
	Addr() net.Addr
}

// Adapter 入站接纳适配器
//
// 把监听器接受的连接交给对端索引；HandleInbound 可被多个监听循环并发调用。
type Adapter struct {
	index    *peerindex.Index
	gater    *gater.Gater
	limiter  *rate.Limiter
	expirer  *Expirer
	reporter metrics.Reporter
	bus      pkgif.EventBus
	emitter  pkgif.Emitter
	clock    clock.Clock

	wg sync.WaitGroup
}

// New 创建接纳适配器
func New(ix *peerindex.Index, cfg Config, opts ...Option) (*Adapter, error) {
	if ix == nil {
		return nil, errors.New("acceptor: nil peer index")
	}

	a := &Adapter{
		index:    ix,
		reporter: metrics.NopReporter{},
		clock:    clock.New(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.gater == nil {
		filter, err := gater.NewFilterFromCIDRs(cfg.AllowedCIDRs, cfg.BlockedCIDRs)
		if err != nil {
			return nil, err
		}
		a.gater = gater.New(filter)
	}
	if cfg.RateLimit > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}
	if a.bus != nil {
		em, err := a.bus.Emitter(new(types.EvtConnectionStaged))
		if err != nil {
			return nil, err
		}
		a.emitter = em
	}
	a.expirer = NewExpirer(ix, a.clock, a.reporter)

	return a, nil
}

// Gater 返回门控器（用于运行时封禁地址）
func (a *Adapter) Gater() *gater.Gater {
	return a.gater
}

// Expirer 返回期限定时器集合
func (a *Adapter) Expirer() *Expirer {
	return a.expirer
}

// HandleInbound 处理一条入站连接
//
// 拒绝时连接被关闭；暂存时连接的所有权转移给对端索引。
func (a *Adapter) HandleInbound(conn net.Conn) Decision {
	addr, err := types.AddressFromNetAddr(conn.RemoteAddr())
	if err != nil {
		return a.reject(conn, DecisionUnresolved, types.Address{})
	}
	if !a.gater.InterceptAccept(addr) {
		return a.reject(conn, DecisionFiltered, addr)
	}
	if a.limiter != nil && !a.limiter.AllowN(a.clock.Now(), 1) {
		return a.reject(conn, DecisionRateLimited, addr)
	}

	staged, ok := a.index.SeekAccept(addr, conn)
	if !ok {
		return a.reject(conn, DecisionUnknownPeer, addr)
	}

	a.expirer.Schedule(staged)
	a.reporter.AcceptAdmitted()

	if a.emitter != nil {
		_ = a.emitter.Emit(types.EvtConnectionStaged{
			PeerID:   staged.PeerID,
			Address:  staged.Address,
			StagedID: staged.ID,
			Deadline: staged.Deadline,
		})
	}

	logger.Debug("inbound connection staged",
		"addr", addr,
		"id", staged.PeerID,
		"staged", staged.ID,
		"deadline", staged.Deadline)
	return DecisionStaged
}

// reject 关闭被拒绝的连接，不向外报告原因
func (a *Adapter) reject(conn net.Conn, d Decision, addr types.Address) Decision {
	_ = conn.Close()
	a.reporter.AcceptRejected(d.String())
	logger.Debug("inbound connection rejected", "addr", addr, "reason", d.String())
	return d
}

// ============================================================================
//                              监听循环
// ============================================================================

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Serve 在 l 上运行接受循环，直到 ctx 取消或监听器关闭
//
// 返回前关闭监听器。监听器正常关闭时返回 nil。
func (a *Adapter) Serve(ctx context.Context, l Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()
	defer l.Close()

	var backoff time.Duration
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, tcp.ErrListenerClosed) || errors.Is(err, net.ErrClosed) {
				return nil
			}

			if backoff == 0 {
				backoff = minAcceptBackoff
			} else if backoff *= 2; backoff > maxAcceptBackoff {
				backoff = maxAcceptBackoff
			}
			logger.Warn("accept failed, retrying", "addr", l.Addr().String(), "err", err, "backoff", backoff)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			continue
		}

		backoff = 0
		a.HandleInbound(conn)
	}
}

// Go 在后台运行 Serve，Wait 等待其退出
func (a *Adapter) Go(ctx context.Context, l Listener) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.Serve(ctx, l); err != nil {
			logger.Error("accept loop stopped", "err", err)
		}
	}()
}

// Wait 等待所有后台接受循环退出
func (a *Adapter) Wait() {
	a.wg.Wait()
}

// Close 停止期限定时器并关闭事件发射器
//
// 调用前应先停止所有接受循环。
func (a *Adapter) Close() error {
	a.expirer.Stop()
	if a.emitter != nil {
		return a.emitter.Close()
	}
	return nil
}
