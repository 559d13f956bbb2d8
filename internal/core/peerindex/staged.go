package peerindex

import (
	"net"
	"time"

	"github.com/dep2p/go-bgpd/pkg/types"
)

// ============================================================================
//                              暂存连接
// ============================================================================

// StagedConn 已接受、等待会话接管的入站连接
//
// 同一地址同时最多暂存一条连接：新连接替换旧连接，旧连接被关闭。
// 暂存连接的所有权只转移一次：AdoptAccepted 返回后索引不再持有它；
// DiscardStaged 或替换时由索引关闭它。
//
// 索引只记录 Deadline，不负责计时；过期处理由外部定时器调用 DiscardStaged。
type StagedConn struct {
	// ID 唯一标识（uuid），用于日志和定时器匹配
	ID string

	// Conn 已接受的连接
	Conn net.Conn

	// Address 对端地址
	Address types.Address

	// RemoteAddr 连接的远端地址（含端口）
	RemoteAddr string

	// PeerID 暂存时对端的编号
	PeerID types.PeerID

	// AcceptedAt 接受时间
	AcceptedAt time.Time

	// Deadline 接纳期限
	Deadline time.Time
}

// Expired 在 now 时刻是否已过期
func (s *StagedConn) Expired(now time.Time) bool {
	return !now.Before(s.Deadline)
}

// info 生成只读摘要
func (s *StagedConn) info() *StagedInfo {
	return &StagedInfo{
		ID:         s.ID,
		RemoteAddr: s.RemoteAddr,
		AcceptedAt: s.AcceptedAt,
		Deadline:   s.Deadline,
	}
}

// StagedInfo 暂存连接的只读摘要（不含连接本身）
type StagedInfo struct {
	ID         string
	RemoteAddr string
	AcceptedAt time.Time
	Deadline   time.Time
}

// closeStaged 关闭暂存连接，只能在释放锁之后调用
func closeStaged(s *StagedConn, reason string) error {
	if s == nil || s.Conn == nil {
		return nil
	}
	err := s.Conn.Close()
	logger.Debug("staged connection closed",
		"addr", s.Address,
		"staged", s.ID,
		"reason", reason,
		"err", err)
	return err
}
