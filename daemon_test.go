package bgpd

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-bgpd/config"
	"github.com/dep2p/go-bgpd/internal/core/eventbus"
	"github.com/dep2p/go-bgpd/internal/core/session"
	"github.com/dep2p/go-bgpd/internal/core/sysparams"
	"github.com/dep2p/go-bgpd/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              测试辅助
// ════════════════════════════════════════════════════════════════════════════

type testSession struct {
	mu    sync.Mutex
	conns []net.Conn
}

func (s *testSession) Attach(conn net.Conn, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns = append(s.conns, conn)
	return nil
}

func (s *testSession) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Listen.Addrs = []string{"127.0.0.1:0"}
	cfg.PeerIndex.InitialCapacity = 8
	cfg.Neighbors = []config.NeighborConfig{
		{Address: "127.0.0.1", Description: "loopback"},
		{Address: "192.0.2.1", Shutdown: true},
	}
	return cfg
}

func startDaemon(t *testing.T, cfg *config.Config) *Daemon {
	t.Helper()
	d, err := New(cfg,
		WithClock(clock.NewMock()),
		WithSysParams(sysparams.Params{OpenMax: 1024}),
	)
	require.NoError(t, err)
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func dial(t *testing.T, d *Daemon) net.Conn {
	t.Helper()
	addrs := d.ListenAddrs()
	require.Len(t, addrs, 1)
	conn, err := net.DialTimeout("tcp", addrs[0].String(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期测试
// ════════════════════════════════════════════════════════════════════════════

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Listen.Addrs = []string{"no-port"}

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_NilClock(t *testing.T) {
	_, err := New(nil, WithClock(nil))
	assert.Error(t, err)
}

func TestDaemon_StartRegistersNeighbors(t *testing.T) {
	d := startDaemon(t, testConfig())

	assert.Equal(t, StateRunning, d.State())
	assert.Equal(t, 2, d.Index().Len())

	ns := d.Neighbors()
	require.Len(t, ns, 2)
	assert.Equal(t, types.PeerID(1), ns[0].ID())
	assert.Equal(t, "loopback", ns[0].Name())
	assert.Equal(t, "192.0.2.1", ns[1].Name())

	v, ok := d.Index().SeekID(ns[1].ID())
	require.True(t, ok)
	assert.True(t, v.Disabled)
}

func TestDaemon_StartTwice(t *testing.T) {
	d := startDaemon(t, testConfig())
	assert.ErrorIs(t, d.Start(context.Background()), ErrAlreadyStarted)
}

func TestDaemon_CloseIdempotent(t *testing.T) {
	d := startDaemon(t, testConfig())

	require.NoError(t, d.Close())
	assert.Equal(t, StateClosed, d.State())
	assert.NoError(t, d.Close())
	assert.ErrorIs(t, d.Start(context.Background()), ErrDaemonClosed)

	_, err := d.AddNeighbor(config.NeighborConfig{Address: "198.51.100.1"})
	assert.ErrorIs(t, err, ErrDaemonClosed)
}

func TestDaemon_StartRollsBackNeighbors(t *testing.T) {
	d, err := New(testConfig(),
		WithClock(clock.NewMock()),
		WithSysParams(sysparams.Params{OpenMax: 1024}),
	)
	require.NoError(t, err)
	defer d.Close()

	// 与配置中的第二个邻居冲突
	_, err = d.AddNeighbor(config.NeighborConfig{Address: "192.0.2.1"})
	require.NoError(t, err)

	err = d.Start(context.Background())
	require.ErrorIs(t, err, ErrNeighborExists)
	assert.Equal(t, StateIdle, d.State())
	_, ok := d.Neighbor(types.MustParseAddress("127.0.0.1"))
	assert.False(t, ok, "neighbors registered before the failure are rolled back")
	assert.Equal(t, 1, d.Index().Len())

	require.NoError(t, d.RemoveNeighbor(types.MustParseAddress("192.0.2.1")))
	require.NoError(t, d.Start(context.Background()))
	assert.Equal(t, StateRunning, d.State())
	assert.Equal(t, 2, d.Index().Len())
}

func TestDaemon_StartFailureClosesEmitters(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := testConfig()
	cfg.Listen.Addrs = []string{busy.Addr().String()}
	d, err := New(cfg,
		WithClock(clock.NewMock()),
		WithSysParams(sysparams.Params{OpenMax: 1024}),
	)
	require.NoError(t, err)

	require.Error(t, d.Start(context.Background()))
	assert.Equal(t, StateClosed, d.State())

	assert.ErrorIs(t, d.registered.Emit(types.EvtPeerRegistered{}), eventbus.ErrClosed)
	assert.ErrorIs(t, d.deregistered.Emit(types.EvtPeerDeregistered{}), eventbus.ErrClosed)
	assert.NoError(t, d.Close())
}

// ════════════════════════════════════════════════════════════════════════════
//                              邻居管理测试
// ════════════════════════════════════════════════════════════════════════════

func TestDaemon_AddRemoveNeighbor(t *testing.T) {
	d := startDaemon(t, testConfig())
	sub, err := d.EventBus().Subscribe(new(types.EvtPeerDeregistered))
	require.NoError(t, err)
	defer sub.Close()

	n, err := d.AddNeighbor(config.NeighborConfig{Address: "2001:db8::7"})
	require.NoError(t, err)
	assert.Equal(t, 3, d.Index().Len())

	_, err = d.AddNeighbor(config.NeighborConfig{Address: "2001:db8::7"})
	assert.ErrorIs(t, err, ErrNeighborExists)

	_, err = d.AddNeighbor(config.NeighborConfig{Address: "not-an-address"})
	assert.Error(t, err)

	require.NoError(t, d.RemoveNeighbor(n.Address()))
	assert.Equal(t, 2, d.Index().Len())
	_, ok := d.Neighbor(n.Address())
	assert.False(t, ok)

	select {
	case evt := <-sub.Out():
		e := evt.(types.EvtPeerDeregistered)
		assert.Equal(t, n.ID(), e.PeerID)
		assert.Equal(t, n.Address(), e.Address)
	case <-time.After(time.Second):
		t.Fatal("no deregistered event")
	}

	assert.ErrorIs(t, d.RemoveNeighbor(n.Address()), ErrUnknownNeighbor)
}

func TestDaemon_SetShutdown(t *testing.T) {
	d := startDaemon(t, testConfig())
	a := types.MustParseAddress("192.0.2.1")

	require.NoError(t, d.SetShutdown(a, false))
	v, ok := d.Index().SeekEntry(a)
	require.True(t, ok)
	assert.False(t, v.Disabled)

	assert.ErrorIs(t, d.SetShutdown(types.MustParseAddress("198.51.100.9"), true), ErrUnknownNeighbor)
}

// ════════════════════════════════════════════════════════════════════════════
//                              接纳与会话测试
// ════════════════════════════════════════════════════════════════════════════

func TestDaemon_InboundAdoptedOnActivate(t *testing.T) {
	d := startDaemon(t, testConfig())
	loop := types.MustParseAddress("127.0.0.1")

	dial(t, d)

	require.Eventually(t, func() bool {
		v, ok := d.Index().SeekEntry(loop)
		return ok && v.HasStaged()
	}, 2*time.Second, 10*time.Millisecond)

	n, ok := d.Neighbor(loop)
	require.True(t, ok)

	s := &testSession{}
	res, err := d.Activate(context.Background(), n, s)
	require.NoError(t, err)
	assert.Equal(t, session.Inbound, res)
	assert.Equal(t, 1, s.count())
}

func TestDaemon_WatchAttachesAfterActivate(t *testing.T) {
	cfg := testConfig()
	d := startDaemon(t, cfg)
	loop := types.MustParseAddress("127.0.0.1")

	n, ok := d.Neighbor(loop)
	require.True(t, ok)

	// 没有暂存连接时绑定器会拨号 179 端口；先关闭该邻居再激活
	require.NoError(t, d.SetShutdown(loop, true))
	s := &testSession{}
	_, err := d.Activate(context.Background(), n, s)
	require.ErrorIs(t, err, session.ErrPeerDisabled)
	require.NoError(t, d.SetShutdown(loop, false))

	dial(t, d)

	assert.Eventually(t, func() bool {
		return s.count() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDaemon_ActivateBeforeStart(t *testing.T) {
	d, err := New(testConfig(), WithSysParams(sysparams.Params{OpenMax: 1024}))
	require.NoError(t, err)
	defer d.Close()

	_, err = d.Activate(context.Background(), &Neighbor{}, &testSession{})
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestDaemon_ActivateAfterRemove(t *testing.T) {
	d := startDaemon(t, testConfig())

	n, err := d.AddNeighbor(config.NeighborConfig{Address: "198.51.100.7"})
	require.NoError(t, err)
	require.NoError(t, d.RemoveNeighbor(n.Address()))

	s := &testSession{}
	_, err = d.Activate(context.Background(), n, s)
	assert.ErrorIs(t, err, ErrUnknownNeighbor)
	assert.ErrorIs(t, d.Deactivate(n), ErrUnknownNeighbor)
	assert.Equal(t, 0, s.count())

	// 同一地址重新注册后，旧的邻居对象仍然无效
	_, err = d.AddNeighbor(config.NeighborConfig{Address: "198.51.100.7", Shutdown: true})
	require.NoError(t, err)
	_, err = d.Activate(context.Background(), n, s)
	assert.ErrorIs(t, err, ErrUnknownNeighbor)

	_, err = d.Activate(context.Background(), nil, s)
	assert.ErrorIs(t, err, ErrUnknownNeighbor)
	assert.ErrorIs(t, d.Deactivate(nil), ErrUnknownNeighbor)
}

func TestDaemon_ActivateRacesRemove(t *testing.T) {
	d := startDaemon(t, testConfig())

	for i := 0; i < 50; i++ {
		// 关闭状态的邻居不会拨号
		n, err := d.AddNeighbor(config.NeighborConfig{Address: "198.51.100.7", Shutdown: true})
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := d.Activate(context.Background(), n, &testSession{})
			if !errors.Is(err, ErrUnknownNeighbor) {
				assert.ErrorIs(t, err, session.ErrPeerDisabled)
			}
			if err := d.Deactivate(n); err != nil {
				assert.ErrorIs(t, err, ErrUnknownNeighbor)
			}
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, d.RemoveNeighbor(n.Address()))
		}()
		wg.Wait()
	}
	assert.Equal(t, 2, d.Index().Len())
}
