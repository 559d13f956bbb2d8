package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"

	"github.com/dep2p/go-bgpd/config"
	"github.com/dep2p/go-bgpd/pkg/lib/log"
	"github.com/dep2p/go-bgpd/pkg/types"
)

var logger = log.Logger("core/transport/tcp")

// Config TCP 传输配置
type Config struct {
	// KeepAlive TCP keepalive 间隔（0 = 系统默认）
	KeepAlive time.Duration

	// NoDelay 是否禁用 Nagle
	NoDelay bool

	// DialTimeout 出站拨号超时
	DialTimeout time.Duration

	// Port 出站拨号的目标端口
	Port uint16
}

// NewConfig 创建默认配置
func NewConfig() Config {
	d := config.DefaultListenConfig()
	return Config{
		KeepAlive:   d.KeepAlive.Duration(),
		NoDelay:     d.NoDelay,
		DialTimeout: d.DialTimeout.Duration(),
		Port:        config.BGPPort,
	}
}

// ConfigFromUnified 从统一配置创建传输配置
func ConfigFromUnified(cfg *config.Config) Config {
	c := NewConfig()
	if cfg == nil {
		return c
	}
	c.KeepAlive = cfg.Listen.KeepAlive.Duration()
	c.NoDelay = cfg.Listen.NoDelay
	c.DialTimeout = cfg.Listen.DialTimeout.Duration()
	return c
}

// ============================================================================
//                              Transport 实现
// ============================================================================

// Transport TCP 传输
type Transport struct {
	config Config

	listenersMu sync.Mutex
	listeners   []*Listener

	closed atomic.Bool
}

// NewTransport 创建 TCP 传输
func NewTransport(cfg Config) *Transport {
	return &Transport{config: cfg}
}

// Listen 在 addr 上监听
func (t *Transport) Listen(ctx context.Context, addr string) (*Listener, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}

	l, err := newListener(ctx, addr, t.config)
	if err != nil {
		return nil, err
	}

	t.listenersMu.Lock()
	t.listeners = append(t.listeners, l)
	t.listenersMu.Unlock()

	logger.Info("listening", "addr", l.Addr().String())
	return l, nil
}

// Dial 向邻居发起出站连接
func (t *Transport) Dial(ctx context.Context, addr types.Address) (net.Conn, error) {
	return t.DialPort(ctx, addr, t.config.Port)
}

// DialPort 向邻居的指定端口发起出站连接
func (t *Transport) DialPort(ctx context.Context, addr types.Address, port uint16) (net.Conn, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}
	if !addr.IsValid() {
		return nil, fmt.Errorf("tcp: dial: invalid address")
	}

	dialer := &net.Dialer{
		Timeout:   t.config.DialTimeout,
		KeepAlive: t.config.KeepAlive,
	}

	target := addr.WithPort(port)
	conn, err := dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		return nil, fmt.Errorf("tcp: dial %s: %w", target, err)
	}

	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		_ = conn.Close()
		return nil, ErrNotTCP
	}
	_ = tcpConn.SetNoDelay(t.config.NoDelay)

	logger.Debug("dialed", "addr", addr, "port", port)
	return tcpConn, nil
}

// ListenerCount 返回监听器数量
func (t *Transport) ListenerCount() int {
	t.listenersMu.Lock()
	defer t.listenersMu.Unlock()
	return len(t.listeners)
}

// ListenAddrs 返回所有监听器的实际地址
func (t *Transport) ListenAddrs() []net.Addr {
	t.listenersMu.Lock()
	defer t.listenersMu.Unlock()

	addrs := make([]net.Addr, 0, len(t.listeners))
	for _, l := range t.listeners {
		addrs = append(addrs, l.Addr())
	}
	return addrs
}

// Close 关闭传输及其所有监听器
func (t *Transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	t.listenersMu.Lock()
	listeners := t.listeners
	t.listeners = nil
	t.listenersMu.Unlock()

	var err error
	for _, l := range listeners {
		err = multierr.Append(err, l.Close())
	}
	return err
}

// IsClosed 检查是否已关闭
func (t *Transport) IsClosed() bool {
	return t.closed.Load()
}
