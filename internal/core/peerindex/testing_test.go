package peerindex

import (
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-bgpd/pkg/types"
)

// ============================================================================
//                              测试辅助
// ============================================================================

type testPeer struct {
	name string
}

func (p *testPeer) Name() string { return p.name }

type testSession struct {
	mu       sync.Mutex
	attached []net.Conn
}

func (s *testSession) Attach(conn net.Conn, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = append(s.attached, conn)
	return nil
}

func newTestIndex(t *testing.T, capacity int) (*Index, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	cfg := Config{
		InitialCapacity: capacity,
		GrowBatch:       capacity,
		MaxCapacity:     1024,
		StageTimeout:    30 * time.Second,
	}
	return New(cfg, WithClock(mock)), mock
}

func addr(s string) types.Address {
	return types.MustParseAddress(s)
}

// newConn 返回 net.Pipe 的本端，远端在测试结束时关闭
func newConn(t *testing.T) net.Conn {
	t.Helper()
	local, remote := net.Pipe()
	t.Cleanup(func() {
		_ = local.Close()
		_ = remote.Close()
	})
	return local
}

// isClosed 判断 net.Pipe 本端是否已关闭
func isClosed(c net.Conn) bool {
	_ = c.SetReadDeadline(time.Now().Add(time.Millisecond))
	_, err := c.Read(make([]byte, 1))
	return errors.Is(err, io.ErrClosedPipe)
}

// requireInvariant 断言 fn 以指定类别的 *InvariantError panic
func requireInvariant(t *testing.T, want error, fn func()) {
	t.Helper()

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		fn()
	}()

	require.NotNil(t, recovered, "expected panic")
	ie, ok := recovered.(*InvariantError)
	require.True(t, ok, "panic value %T is not *InvariantError", recovered)
	assert.ErrorIs(t, ie, want)
}
