package acceptor

import (
	"github.com/dep2p/go-bgpd/config"
)

// Config 接纳配置
type Config struct {
	// RateLimit 每秒处理的入站连接数（0 = 不限制）
	RateLimit float64

	// RateBurst 速率限制的突发量
	RateBurst int

	// AllowedCIDRs 允许的网段（为空表示全部允许）
	AllowedCIDRs []string

	// BlockedCIDRs 禁止的网段
	BlockedCIDRs []string

	// ListenAddrs 由模块启动的监听地址
	ListenAddrs []string
}

// NewConfig 创建默认配置
func NewConfig() Config {
	d := config.DefaultAcceptConfig()
	return Config{
		RateLimit: d.RateLimit,
		RateBurst: d.RateBurst,
	}
}

// ConfigFromUnified 从统一配置创建接纳配置
func ConfigFromUnified(cfg *config.Config) Config {
	c := NewConfig()
	if cfg == nil {
		return c
	}
	c.RateLimit = cfg.Accept.RateLimit
	c.RateBurst = cfg.Accept.RateBurst
	c.AllowedCIDRs = cfg.Accept.AllowedCIDRs
	c.BlockedCIDRs = cfg.Accept.BlockedCIDRs
	c.ListenAddrs = cfg.Listen.Addrs
	return c
}
