package peerindex

import (
	"time"

	"github.com/dep2p/go-bgpd/config"
	"github.com/dep2p/go-bgpd/internal/core/sysparams"
	"github.com/dep2p/go-bgpd/pkg/types"
)

// Config 对端索引配置
type Config struct {
	// InitialCapacity 启动时预分配的槽位数
	InitialCapacity int

	// GrowBatch 每次增长的槽位数
	GrowBatch int

	// MaxCapacity 槽位上限
	MaxCapacity int

	// StageTimeout 暂存连接的接纳期限
	StageTimeout time.Duration
}

// NewConfig 创建默认配置
func NewConfig() Config {
	d := config.DefaultPeerIndexConfig()
	return Config{
		InitialCapacity: d.MinCapacity,
		GrowBatch:       d.GrowBatch,
		MaxCapacity:     d.MaxCapacity,
		StageTimeout:    config.DefaultAcceptConfig().StageTimeout.Duration(),
	}
}

// ConfigFromUnified 从统一配置创建索引配置
//
// 初始容量未显式配置时，按进程文件描述符上限推导。
func ConfigFromUnified(cfg *config.Config, params sysparams.Params) Config {
	c := NewConfig()
	if cfg == nil {
		return c
	}
	c.InitialCapacity = sysparams.CapacityFor(cfg.PeerIndex, params)
	c.GrowBatch = cfg.PeerIndex.GrowBatch
	c.MaxCapacity = cfg.PeerIndex.MaxCapacity
	c.StageTimeout = cfg.Accept.StageTimeout.Duration()
	return c
}

// normalize 修正非法值
func (c Config) normalize() Config {
	d := NewConfig()
	if c.GrowBatch <= 0 {
		c.GrowBatch = d.GrowBatch
	}
	if c.MaxCapacity <= 0 {
		c.MaxCapacity = d.MaxCapacity
	}
	if uint64(c.MaxCapacity) > uint64(types.MaxPeerID) {
		// 编号 = 下标 + 1，超出后会回绕到空编号
		c.MaxCapacity = int(types.MaxPeerID)
	}
	if c.InitialCapacity < 0 {
		c.InitialCapacity = 0
	}
	if c.InitialCapacity > c.MaxCapacity {
		c.InitialCapacity = c.MaxCapacity
	}
	if c.StageTimeout <= 0 {
		c.StageTimeout = d.StageTimeout
	}
	return c
}
