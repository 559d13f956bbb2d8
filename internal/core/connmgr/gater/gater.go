package gater

import (
	"sync"

	"github.com/dep2p/go-bgpd/pkg/types"
)

// Gater 连接门控器
type Gater struct {
	mu sync.RWMutex

	// blocked 封禁的地址
	blocked map[types.Address]struct{}

	// filter 网段过滤器（可为 nil）
	filter *Filter
}

// New 创建门控器
func New(filter *Filter) *Gater {
	return &Gater{
		blocked: make(map[types.Address]struct{}),
		filter:  filter,
	}
}

// InterceptAccept 拦截入站连接
//
// 返回 false 时调用方应立即关闭连接。
func (g *Gater) InterceptAccept(addr types.Address) bool {
	return g.allow(addr)
}

// InterceptDial 拦截出站拨号
func (g *Gater) InterceptDial(addr types.Address) bool {
	return g.allow(addr)
}

func (g *Gater) allow(addr types.Address) bool {
	g.mu.RLock()
	_, blocked := g.blocked[addr]
	g.mu.RUnlock()

	if blocked {
		return false
	}
	if g.filter != nil {
		return g.filter.Allow(addr)
	}
	return addr.IsValid()
}

// BlockAddr 封禁地址
func (g *Gater) BlockAddr(addr types.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blocked[addr] = struct{}{}
}

// UnblockAddr 解除封禁
func (g *Gater) UnblockAddr(addr types.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.blocked, addr)
}

// IsBlocked 地址是否被封禁
func (g *Gater) IsBlocked(addr types.Address) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.blocked[addr]
	return ok
}
