// Package sysparams 探测进程级系统参数
//
// 在启动的第一阶段（任何并发引擎启动前）调用，用于推导对端索引的初始容量。
package sysparams

import (
	"errors"
	"math"

	"github.com/dep2p/go-bgpd/config"
	"github.com/dep2p/go-bgpd/pkg/lib/log"
)

var logger = log.Logger("core/sysparams")

// MinOpenMax 可接受的最小文件描述符上限
const MinOpenMax = 256

// ErrOpenMaxTooLow 文件描述符上限过低
var ErrOpenMaxTooLow = errors.New("sysparams: open file limit below minimum")

// Params 系统参数
type Params struct {
	// OpenMax 进程可打开的文件描述符数（软上限）
	OpenMax int
}

// Probe 探测系统参数
//
// 软上限无限制时按 math.MaxInt32 处理；低于 MinOpenMax 返回错误。
func Probe() (Params, error) {
	n, err := openMax()
	if err != nil {
		return Params{}, err
	}
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	if n < MinOpenMax {
		return Params{}, ErrOpenMaxTooLow
	}

	logger.Debug("system parameters probed", "openMax", n)
	return Params{OpenMax: int(n)}, nil
}

// CapacityFor 推导对端索引初始容量
//
// 显式配置 InitialCapacity 时直接使用；否则
// clamp(OpenMax / DescriptorsPerPeer, MinCapacity, MaxCapacity)。
// OpenMax 未知（0）时使用 MinCapacity。
func CapacityFor(cfg config.PeerIndexConfig, p Params) int {
	if cfg.InitialCapacity > 0 {
		return cfg.InitialCapacity
	}

	n := cfg.MinCapacity
	if p.OpenMax > 0 && cfg.DescriptorsPerPeer > 0 {
		n = p.OpenMax / cfg.DescriptorsPerPeer
	}
	if n < cfg.MinCapacity {
		n = cfg.MinCapacity
	}
	if n > cfg.MaxCapacity {
		n = cfg.MaxCapacity
	}
	return n
}
