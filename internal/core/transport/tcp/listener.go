package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"
)

// ============================================================================
//                              Listener 实现
// ============================================================================

// Listener TCP 监听器
type Listener struct {
	listener  *net.TCPListener
	keepAlive time.Duration
	noDelay   bool
	closed    atomic.Bool
}

// newListener 创建 TCP 监听器
func newListener(ctx context.Context, addr string, cfg Config) (*Listener, error) {
	lc := net.ListenConfig{KeepAlive: cfg.KeepAlive}

	l, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcp: listen %s: %w", addr, err)
	}

	tcpListener, ok := l.(*net.TCPListener)
	if !ok {
		_ = l.Close()
		return nil, ErrNotTCP
	}

	return &Listener{
		listener:  tcpListener,
		keepAlive: cfg.KeepAlive,
		noDelay:   cfg.NoDelay,
	}, nil
}

// Accept 接受连接
//
// 监听器关闭后返回 ErrListenerClosed。
func (l *Listener) Accept() (net.Conn, error) {
	conn, err := l.listener.AcceptTCP()
	if err != nil {
		if l.closed.Load() || errors.Is(err, net.ErrClosed) {
			return nil, ErrListenerClosed
		}
		return nil, err
	}

	l.tune(conn)
	return conn, nil
}

func (l *Listener) tune(conn *net.TCPConn) {
	_ = conn.SetNoDelay(l.noDelay)
	if l.keepAlive > 0 {
		_ = conn.SetKeepAlive(true)
		_ = conn.SetKeepAlivePeriod(l.keepAlive)
	}
}

// Addr 返回实际监听地址（端口可能由系统分配）
func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}

// Close 关闭监听器
func (l *Listener) Close() error {
	if l.closed.CompareAndSwap(false, true) {
		return l.listener.Close()
	}
	return nil
}

// IsClosed 检查监听器是否已关闭
func (l *Listener) IsClosed() bool {
	return l.closed.Load()
}
