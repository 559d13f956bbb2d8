package config

import (
	"errors"
	"math"
)

// PeerIndexConfig 对端索引配置
//
// 条目池在启动时预分配，之后按 GrowBatch 批量增长。
// InitialCapacity 为 0 时由进程文件描述符上限推导：
//
//	capacity = clamp(open_max / DescriptorsPerPeer, MinCapacity, MaxCapacity)
type PeerIndexConfig struct {
	// InitialCapacity 初始槽位数（0 = 自动推导）
	InitialCapacity int `json:"initial_capacity,omitempty"`

	// GrowBatch 每次增长的槽位数
	GrowBatch int `json:"grow_batch"`

	// MinCapacity 自动推导的下限
	MinCapacity int `json:"min_capacity"`

	// MaxCapacity 槽位总数上限，超过即视为资源耗尽（致命）
	MaxCapacity int `json:"max_capacity"`

	// DescriptorsPerPeer 每个对端预留的文件描述符数
	// （一个已建立会话 + 一个暂存的入站连接 + 一个出站拨号）
	DescriptorsPerPeer int `json:"descriptors_per_peer"`
}

// DefaultPeerIndexConfig 返回默认对端索引配置
func DefaultPeerIndexConfig() PeerIndexConfig {
	return PeerIndexConfig{
		InitialCapacity:    0,
		GrowBatch:          64,
		MinCapacity:        64,
		MaxCapacity:        1 << 20,
		DescriptorsPerPeer: 3,
	}
}

// Validate 验证对端索引配置
func (c PeerIndexConfig) Validate() error {
	if c.InitialCapacity < 0 {
		return errors.New("peer_index.initial_capacity must be non-negative")
	}
	if c.GrowBatch <= 0 {
		return errors.New("peer_index.grow_batch must be positive")
	}
	if c.MinCapacity <= 0 {
		return errors.New("peer_index.min_capacity must be positive")
	}
	if c.MaxCapacity <= 0 || int64(c.MaxCapacity) > math.MaxUint32-1 {
		return errors.New("peer_index.max_capacity out of range")
	}
	if c.MinCapacity > c.MaxCapacity {
		return errors.New("peer_index.min_capacity exceeds max_capacity")
	}
	if c.InitialCapacity > c.MaxCapacity {
		return errors.New("peer_index.initial_capacity exceeds max_capacity")
	}
	if c.DescriptorsPerPeer <= 0 {
		return errors.New("peer_index.descriptors_per_peer must be positive")
	}
	return nil
}
