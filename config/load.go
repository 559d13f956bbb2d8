package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// 环境变量（均使用 BGPD_ 前缀）
const (
	EnvPrefix          = "BGPD_"
	EnvListenAddrs     = "LISTEN_ADDRS"
	EnvStageTimeout    = "STAGE_TIMEOUT"
	EnvInitialCapacity = "INITIAL_CAPACITY"
	EnvMetricsEnable   = "METRICS_ENABLE"
	EnvMetricsAddr     = "METRICS_ADDR"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保持默认值。
//
// 示例 JSON:
//
//	{
//	  "accept": {"stage_timeout": "10s"},
//	  "neighbors": [{"address": "192.0.2.1", "description": "upstream-a"}]
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadFile 从 JSON 文件加载配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: 配置文件路径由运维指定
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return FromJSON(data)
}

// ApplyEnv 应用环境变量覆盖
//
// 环境变量优先级高于配置文件，低于命令行参数。
// 无法解析的值返回错误，不会被静默忽略。
func ApplyEnv(cfg *Config) error {
	return applyEnv(cfg, os.Getenv)
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	get := func(name string) string {
		return strings.TrimSpace(getenv(EnvPrefix + name))
	}

	if v := get(EnvListenAddrs); v != "" {
		cfg.Listen.Addrs = splitAndTrim(v, ",")
	}

	if v := get(EnvStageTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, EnvStageTimeout, err)
		}
		cfg.Accept.StageTimeout = Duration(d)
	}

	if v := get(EnvInitialCapacity); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, EnvInitialCapacity, err)
		}
		cfg.PeerIndex.InitialCapacity = n
	}

	if v := get(EnvMetricsEnable); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, EnvMetricsEnable, err)
		}
		cfg.Metrics.Enable = b
	}

	if v := get(EnvMetricsAddr); v != "" {
		cfg.Metrics.ListenAddr = v
	}

	return nil
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
