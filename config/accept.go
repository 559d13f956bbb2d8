package config

import (
	"errors"
	"fmt"
	"net/netip"
	"time"
)

// AcceptConfig 入站连接接纳配置
//
// 配置接纳热路径：
//   - 暂存连接的接纳期限
//   - 接纳速率限制
//   - CIDR 过滤（在查询对端索引之前执行）
type AcceptConfig struct {
	// StageTimeout 暂存连接等待会话接管的期限
	StageTimeout Duration `json:"stage_timeout"`

	// RateLimit 每秒允许处理的入站连接数（0 = 不限制）
	RateLimit float64 `json:"rate_limit,omitempty"`

	// RateBurst 速率限制的突发量
	RateBurst int `json:"rate_burst,omitempty"`

	// AllowedCIDRs 允许的网段（为空表示全部允许）
	AllowedCIDRs []string `json:"allowed_cidrs,omitempty"`

	// BlockedCIDRs 禁止的网段（优先于 AllowedCIDRs）
	BlockedCIDRs []string `json:"blocked_cidrs,omitempty"`
}

// DefaultAcceptConfig 返回默认接纳配置
func DefaultAcceptConfig() AcceptConfig {
	return AcceptConfig{
		StageTimeout: Duration(30 * time.Second),
		RateLimit:    0,
		RateBurst:    32,
	}
}

// Validate 验证接纳配置
func (c AcceptConfig) Validate() error {
	if c.StageTimeout <= 0 {
		return errors.New("accept.stage_timeout must be positive")
	}
	if c.RateLimit < 0 {
		return errors.New("accept.rate_limit must be non-negative")
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		return errors.New("accept.rate_burst must be positive when rate_limit is set")
	}
	for _, s := range c.AllowedCIDRs {
		if _, err := netip.ParsePrefix(s); err != nil {
			return fmt.Errorf("accept.allowed_cidrs: %w", err)
		}
	}
	for _, s := range c.BlockedCIDRs {
		if _, err := netip.ParsePrefix(s); err != nil {
			return fmt.Errorf("accept.blocked_cidrs: %w", err)
		}
	}
	return nil
}
