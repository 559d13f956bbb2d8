package gater

import (
	"fmt"
	"net/netip"
	"sync"

	"github.com/dep2p/go-bgpd/pkg/types"
)

// Filter 网段过滤器
type Filter struct {
	mu sync.RWMutex

	// allowed 允许的网段
	allowed []netip.Prefix

	// blocked 阻止的网段
	blocked []netip.Prefix

	// defaultAllow 允许列表为空时是否放行
	defaultAllow bool
}

// NewFilter 创建过滤器
func NewFilter(defaultAllow bool) *Filter {
	return &Filter{
		defaultAllow: defaultAllow,
	}
}

// NewFilterFromCIDRs 由配置的网段列表创建过滤器
func NewFilterFromCIDRs(allowed, blocked []string) (*Filter, error) {
	f := NewFilter(true)
	for _, s := range allowed {
		if err := f.AllowCIDR(s); err != nil {
			return nil, err
		}
	}
	for _, s := range blocked {
		if err := f.BlockCIDR(s); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func parsePrefix(cidr string) (netip.Prefix, error) {
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("gater: %w", err)
	}
	// 与 types.Address 一致：IPv4 映射前缀按 IPv4 处理
	if p.Addr().Is4In6() && p.Bits() >= 96 {
		p = netip.PrefixFrom(p.Addr().Unmap(), p.Bits()-96)
	}
	return p.Masked(), nil
}

// AllowCIDR 允许网段
func (f *Filter) AllowCIDR(cidr string) error {
	p, err := parsePrefix(cidr)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.allowed = append(f.allowed, p)
	return nil
}

// BlockCIDR 阻止网段
func (f *Filter) BlockCIDR(cidr string) error {
	p, err := parsePrefix(cidr)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked = append(f.blocked, p)
	return nil
}

// Allow 检查地址是否允许
func (f *Filter) Allow(addr types.Address) bool {
	if !addr.IsValid() {
		return false
	}
	// 网段不携带 zone
	ip := addr.IP().WithZone("")

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, p := range f.blocked {
		if p.Contains(ip) {
			return false
		}
	}

	if len(f.allowed) > 0 {
		for _, p := range f.allowed {
			if p.Contains(ip) {
				return true
			}
		}
		return false
	}

	return f.defaultAllow
}

// Reset 重置过滤器
func (f *Filter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allowed = nil
	f.blocked = nil
}
