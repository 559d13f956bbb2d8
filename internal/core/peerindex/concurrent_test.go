package peerindex

import (
	"fmt"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-bgpd/pkg/types"
)

// TestIndex_ConcurrentChurn 控制上下文增删邻居，同时入站路径不断接纳
func TestIndex_ConcurrentChurn(t *testing.T) {
	ix, _ := newTestIndex(t, 4)

	const (
		workers = 8
		rounds  = 200
	)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		live = make(map[types.PeerID]types.Address)
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			peer := &testPeer{name: fmt.Sprintf("w%d", w)}
			a := addr(fmt.Sprintf("10.1.%d.1", w))

			for i := 0; i < rounds; i++ {
				id := ix.Register(peer, a)

				mu.Lock()
				other, dup := live[id]
				live[id] = a
				mu.Unlock()
				assert.False(t, dup, "id %d handed out twice (held by %s)", id, other)
				assert.False(t, id.IsNull())

				got, ok := ix.Seek(a)
				assert.True(t, ok)
				assert.Same(t, peer, got)

				mu.Lock()
				delete(live, id)
				mu.Unlock()
				ix.Deregister(peer, a)
			}
		}(w)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			a := addr(fmt.Sprintf("10.1.%d.1", w))
			for i := 0; i < rounds; i++ {
				local, remote := net.Pipe()
				if _, ok := ix.SeekAccept(a, local); !ok {
					_ = local.Close()
				}
				_ = remote.Close()
				if s, ok := ix.AdoptAccepted(a); ok {
					_ = s.Conn.Close()
				}
			}
		}(w)
	}

	wg.Wait()

	st := ix.Stats()
	assert.Equal(t, 0, st.InUse)
	assert.Equal(t, 0, st.Staged)
	assert.Equal(t, st.Capacity, st.Free)
}

// TestIndex_ConcurrentRegisterDistinctIDs 并发注册得到互不相同的编号
func TestIndex_ConcurrentRegisterDistinctIDs(t *testing.T) {
	ix, _ := newTestIndex(t, 2)

	const n = 100
	ids := make([]types.PeerID, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = ix.Register(&testPeer{}, addr(fmt.Sprintf("10.2.%d.%d", i/250, i%250+1)))
		}(i)
	}
	wg.Wait()

	seen := make(map[types.PeerID]bool, n)
	for _, id := range ids {
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
		assert.True(t, id >= 1 && int(id) <= n)
	}
	assert.Equal(t, n, ix.Len())
}
