package interfaces

import (
	"net"

	"github.com/dep2p/go-bgpd/pkg/types"
)

// Peer 已配置的 BGP 邻居
//
// Peer 由配置/控制上下文创建和销毁，索引从不删除它。
// 索引在持锁期间不会调用 Peer 的任何方法。
//
// 索引用 == 比较 Peer 来校验条目归属，实现必须是可比较的类型，
// 通常是指针。动态类型不可比较（例如含切片字段的结构体值）时比较会 panic。
type Peer interface {
	// Name 返回邻居名称（用于日志和显示）
	Name() string
}

// Session BGP 会话状态机
//
// Session 由会话引擎创建，通过 SetSession 绑定到索引条目。
type Session interface {
	// Attach 把一条已建立的 TCP 连接交给会话
	//
	// inbound 为 true 表示连接来自暂存的入站连接。
	Attach(conn net.Conn, inbound bool) error
}

// PeerIndex 对端索引的只读查询视图
//
// 供管理/诊断上下文使用。
type PeerIndex interface {
	// Seek 按地址查找对端
	Seek(addr types.Address) (Peer, bool)

	// Len 返回在用条目数
	Len() int
}
