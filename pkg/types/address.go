package types

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// ============================================================================
//                              Address - 对端地址
// ============================================================================

// Address 对端网络地址
//
// Address 只包含 IP 与可选的 IPv6 zone（scope），不包含端口：
// 入站连接来自临时端口，仍需匹配到配置的邻居。
// IPv4-mapped IPv6 地址会被还原为 IPv4，保证同一个邻居只有一个键。
//
// Address 是可比较的值类型，可直接作为 map 键。
type Address struct {
	ip netip.Addr
}

// ErrInvalidAddress 无效地址
var ErrInvalidAddress = errors.New("invalid address")

// AddressFrom 从 netip.Addr 创建地址
func AddressFrom(ip netip.Addr) Address {
	return Address{ip: ip.Unmap()}
}

// ParseAddress 解析地址
//
// 支持的格式：
//   - 10.0.0.1
//   - fe80::1%eth0
//   - 10.0.0.1:179
//   - [fe80::1%eth0]:179
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, ErrInvalidAddress
	}

	if ip, err := netip.ParseAddr(s); err == nil {
		return AddressFrom(ip), nil
	}

	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return AddressFrom(ap.Addr()), nil
}

// MustParseAddress 解析地址，失败时 panic（用于测试和常量）
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromNetAddr 从 net.Addr 提取对端地址
func AddressFromNetAddr(addr net.Addr) (Address, error) {
	switch a := addr.(type) {
	case *net.TCPAddr:
		ip, ok := netip.AddrFromSlice(a.IP)
		if !ok {
			return Address{}, fmt.Errorf("%w: %s", ErrInvalidAddress, a)
		}
		return AddressFrom(ip.WithZone(a.Zone)), nil
	case *net.UDPAddr:
		ip, ok := netip.AddrFromSlice(a.IP)
		if !ok {
			return Address{}, fmt.Errorf("%w: %s", ErrInvalidAddress, a)
		}
		return AddressFrom(ip.WithZone(a.Zone)), nil
	case nil:
		return Address{}, ErrInvalidAddress
	default:
		return ParseAddress(addr.String())
	}
}

// IP 返回底层 netip.Addr
func (a Address) IP() netip.Addr {
	return a.ip
}

// IsValid 是否为有效地址
func (a Address) IsValid() bool {
	return a.ip.IsValid()
}

// Is4 是否为 IPv4
func (a Address) Is4() bool {
	return a.ip.Is4()
}

// Zone 返回 IPv6 zone（无则为空）
func (a Address) Zone() string {
	return a.ip.Zone()
}

// WithPort 组合成可拨号的 host:port
func (a Address) WithPort(port uint16) string {
	return netip.AddrPortFrom(a.ip, port).String()
}

// String 返回地址的文本形式
func (a Address) String() string {
	if !a.ip.IsValid() {
		return "<invalid>"
	}
	return a.ip.String()
}
