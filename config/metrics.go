package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enable 是否启用 Prometheus HTTP 端点
	Enable bool `json:"enable"`

	// ListenAddr 指标 HTTP 监听地址
	ListenAddr string `json:"listen_addr"`

	// Path 指标路径
	Path string `json:"path"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enable:     false,
		ListenAddr: "127.0.0.1:9179",
		Path:       "/metrics",
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if !c.Enable {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("metrics.listen_addr: %w", err)
	}
	if !strings.HasPrefix(c.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	return nil
}
