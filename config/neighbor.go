package config

import (
	"encoding/json"
	"fmt"

	"github.com/dep2p/go-bgpd/pkg/types"
)

// NeighborConfig 邻居配置
//
// 只包含对端索引关心的部分：地址、描述和管理关闭状态。
type NeighborConfig struct {
	// Address 邻居地址
	Address string `json:"address"`

	// Description 描述
	Description string `json:"description,omitempty"`

	// Shutdown 管理关闭：注册但拒绝其入站连接
	Shutdown bool `json:"shutdown,omitempty"`

	address types.Address
}

// UnmarshalJSON 解析并校验地址
func (n *NeighborConfig) UnmarshalJSON(data []byte) error {
	type plain NeighborConfig
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*n = NeighborConfig(p)
	return n.Validate()
}

// Validate 验证邻居配置
func (n *NeighborConfig) Validate() error {
	addr, err := types.ParseAddress(n.Address)
	if err != nil {
		return fmt.Errorf("neighbor address: %w", err)
	}
	n.address = addr
	return nil
}

// PeerAddress 返回解析后的邻居地址（需先 Validate）
func (n NeighborConfig) PeerAddress() types.Address {
	return n.address
}

// Name 返回显示名称
func (n NeighborConfig) Name() string {
	if n.Description != "" {
		return n.Description
	}
	return n.Address
}
