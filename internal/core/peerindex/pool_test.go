package peerindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-bgpd/pkg/types"
)

func TestPool_InitialFreeListOrder(t *testing.T) {
	p := newPool(4, 4, 16)
	assert.Equal(t, 4, p.capacity())
	assert.Equal(t, 0, p.inUse())

	for want := 0; want < 4; want++ {
		assert.Equal(t, want, p.allocate())
	}
	assert.Equal(t, noSlot, p.freeHead)
	assert.Equal(t, 4, p.inUse())
}

func TestPool_IDsAreIndexPlusOne(t *testing.T) {
	p := newPool(3, 3, 16)
	for i := range p.slots {
		assert.Equal(t, types.PeerIDFromIndex(i), p.slots[i].id)
		assert.Equal(t, types.PeerID(i+1), p.slots[i].id)
	}
}

func TestPool_ReleaseClearsSlot(t *testing.T) {
	p := newPool(2, 2, 16)
	idx := p.allocate()
	p.slots[idx].state = slotInUse
	p.slots[idx].peer = &testPeer{name: "a"}
	p.slots[idx].disabled = true

	p.release(idx)
	e := p.slots[idx]
	assert.Equal(t, slotFree, e.state)
	assert.Nil(t, e.peer)
	assert.False(t, e.disabled)
	assert.Equal(t, types.PeerIDFromIndex(idx), e.id)
	assert.Equal(t, idx, p.freeHead)
}

func TestPool_GrowKeepsIndices(t *testing.T) {
	p := newPool(1, 2, 16)
	first := p.allocate()
	p.slots[first].state = slotInUse
	p.slots[first].addr = types.MustParseAddress("192.0.2.1")

	second := p.allocate()
	assert.Equal(t, 1, second)
	assert.Equal(t, 1, p.grows)
	assert.Equal(t, 3, p.capacity())

	// 增长后旧槽位内容按下标保留
	assert.Equal(t, types.MustParseAddress("192.0.2.1"), p.slots[first].addr)
}

func TestPool_At(t *testing.T) {
	p := newPool(2, 2, 16)

	idx, ok := p.at(1)
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	_, ok = p.at(types.NullPeerID)
	assert.False(t, ok)
	_, ok = p.at(3)
	assert.False(t, ok)
}

func TestPool_Exhausted(t *testing.T) {
	p := newPool(1, 1, 1)
	p.allocate()

	requireInvariant(t, ErrPoolExhausted, func() {
		p.allocate()
	})
}
