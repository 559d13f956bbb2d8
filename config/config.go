// Package config 提供统一的配置管理
//
// 主 Config 结构体嵌入所有子配置，每个子配置在独立文件中定义，
// 各自提供 Default*Config() 与 Validate()。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Accept.StageTimeout = config.Duration(10 * time.Second)
//
//	// 从 JSON 文件加载，再应用 BGPD_* 环境变量
//	cfg, err := config.LoadFile("bgpd.json")
//	config.ApplyEnv(cfg)
package config

import (
	"errors"
	"fmt"
)

// Config 是 go-bgpd 的完整配置
type Config struct {
	// PeerIndex 对端索引（条目池容量）配置
	PeerIndex PeerIndexConfig `json:"peer_index"`

	// Accept 入站连接接纳配置
	Accept AcceptConfig `json:"accept"`

	// Listen 监听配置
	Listen ListenConfig `json:"listen"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`

	// Neighbors 启动时注册的邻居
	Neighbors []NeighborConfig `json:"neighbors,omitempty"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		PeerIndex: DefaultPeerIndexConfig(),
		Accept:    DefaultAcceptConfig(),
		Listen:    DefaultListenConfig(),
		Metrics:   DefaultMetricsConfig(),
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.PeerIndex.Validate(); err != nil {
		return err
	}
	if err := c.Accept.Validate(); err != nil {
		return err
	}
	if err := c.Listen.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}

	seen := make(map[string]int, len(c.Neighbors))
	for i := range c.Neighbors {
		n := &c.Neighbors[i]
		if err := n.Validate(); err != nil {
			return fmt.Errorf("neighbors[%d]: %w", i, err)
		}
		key := n.address.String()
		if j, dup := seen[key]; dup {
			return fmt.Errorf("neighbors[%d]: address %s already configured by neighbors[%d]", i, key, j)
		}
		seen[key] = i
	}
	return nil
}
