package bgpd

import (
	"github.com/dep2p/go-bgpd/config"
	"github.com/dep2p/go-bgpd/pkg/types"
)

// Neighbor 已注册到对端索引的邻居
//
// Neighbor 即索引中的 Peer 值：注销时必须传入同一个指针。
type Neighbor struct {
	id          types.PeerID
	addr        types.Address
	description string
	shutdown    bool
}

func newNeighbor(nc config.NeighborConfig) *Neighbor {
	return &Neighbor{
		addr:        nc.PeerAddress(),
		description: nc.Description,
		shutdown:    nc.Shutdown,
	}
}

// Name 返回显示名称
func (n *Neighbor) Name() string {
	if n.description != "" {
		return n.description
	}
	return n.addr.String()
}

// ID 返回对端编号
func (n *Neighbor) ID() types.PeerID {
	return n.id
}

// Address 返回邻居地址
func (n *Neighbor) Address() types.Address {
	return n.addr
}

// Description 返回描述
func (n *Neighbor) Description() string {
	return n.description
}
