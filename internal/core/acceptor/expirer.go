package acceptor

import (
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-bgpd/internal/core/metrics"
	"github.com/dep2p/go-bgpd/internal/core/peerindex"
)

// Expirer 暂存连接的期限定时器
//
// 对端索引只记录期限，计时由 Expirer 负责。定时器到期时调用
// DiscardStaged：连接已被接管或替换时该调用不产生任何效果。
type Expirer struct {
	index    *peerindex.Index
	clock    clock.Clock
	reporter metrics.Reporter

	mu     sync.Mutex
	timers map[string]*clock.Timer
	closed bool
}

// NewExpirer 创建定时器集合
func NewExpirer(ix *peerindex.Index, clk clock.Clock, reporter metrics.Reporter) *Expirer {
	if clk == nil {
		clk = clock.New()
	}
	if reporter == nil {
		reporter = metrics.NopReporter{}
	}
	return &Expirer{
		index:    ix,
		clock:    clk,
		reporter: reporter,
		timers:   make(map[string]*clock.Timer),
	}
}

// Schedule 为暂存连接安排到期丢弃
func (e *Expirer) Schedule(s *peerindex.StagedConn) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	d := s.Deadline.Sub(e.clock.Now())
	e.timers[s.ID] = e.clock.AfterFunc(d, func() { e.fire(s) })
}

func (e *Expirer) fire(s *peerindex.StagedConn) {
	e.mu.Lock()
	t, ok := e.timers[s.ID]
	if ok && !e.closed && !s.Expired(e.clock.Now()) {
		// 定时器早于期限触发，按剩余时间重新安排
		t.Stop()
		e.timers[s.ID] = e.clock.AfterFunc(s.Deadline.Sub(e.clock.Now()), func() { e.fire(s) })
		e.mu.Unlock()
		return
	}
	delete(e.timers, s.ID)
	e.mu.Unlock()

	if e.index.DiscardStaged(s.Address, s) {
		e.reporter.StagedExpired()
		logger.Debug("staged connection expired", "addr", s.Address, "staged", s.ID)
	}
}

// Cancel 取消暂存连接的定时器（连接已被接管时调用）
func (e *Expirer) Cancel(stagedID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.timers[stagedID]; ok {
		t.Stop()
		delete(e.timers, stagedID)
	}
}

// Pending 返回未到期的定时器数
func (e *Expirer) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.timers)
}

// Stop 停止所有定时器，之后 Schedule 不再生效
func (e *Expirer) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
}
