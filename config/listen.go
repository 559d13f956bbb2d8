package config

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// BGPPort BGP 标准端口
const BGPPort = 179

// ListenConfig 监听配置
type ListenConfig struct {
	// Addrs 监听地址（host:port）
	Addrs []string `json:"addrs"`

	// KeepAlive TCP keepalive 间隔（0 = 系统默认）
	KeepAlive Duration `json:"keep_alive,omitempty"`

	// NoDelay 是否禁用 Nagle
	NoDelay bool `json:"no_delay"`

	// DialTimeout 出站拨号超时
	DialTimeout Duration `json:"dial_timeout"`
}

// DefaultListenConfig 返回默认监听配置
func DefaultListenConfig() ListenConfig {
	return ListenConfig{
		Addrs:       []string{fmt.Sprintf(":%d", BGPPort)},
		KeepAlive:   Duration(15 * time.Second),
		NoDelay:     true,
		DialTimeout: Duration(30 * time.Second),
	}
}

// Validate 验证监听配置
func (c ListenConfig) Validate() error {
	for _, a := range c.Addrs {
		if _, _, err := net.SplitHostPort(a); err != nil {
			return fmt.Errorf("listen.addrs: %w", err)
		}
	}
	if c.KeepAlive < 0 {
		return errors.New("listen.keep_alive must be non-negative")
	}
	if c.DialTimeout <= 0 {
		return errors.New("listen.dial_timeout must be positive")
	}
	return nil
}
