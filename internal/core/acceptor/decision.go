package acceptor

import (
	"github.com/dep2p/go-bgpd/internal/core/metrics"
)

// Decision 入站连接的接纳结果
type Decision uint8

const (
	// DecisionStaged 连接已暂存到对端条目
	DecisionStaged Decision = iota
	// DecisionUnresolved 无法解析远端地址
	DecisionUnresolved
	// DecisionFiltered 被网段过滤或地址封禁
	DecisionFiltered
	// DecisionRateLimited 超过接纳速率
	DecisionRateLimited
	// DecisionUnknownPeer 地址未注册或对端被管理关闭
	DecisionUnknownPeer
)

// Staged 连接是否被暂存
func (d Decision) Staged() bool {
	return d == DecisionStaged
}

// String 返回结果名称
func (d Decision) String() string {
	switch d {
	case DecisionStaged:
		return "staged"
	case DecisionUnresolved:
		return metrics.ReasonUnresolved
	case DecisionFiltered:
		return metrics.ReasonFiltered
	case DecisionRateLimited:
		return metrics.ReasonRateLimited
	case DecisionUnknownPeer:
		return metrics.ReasonUnknownPeer
	default:
		return "unknown"
	}
}
