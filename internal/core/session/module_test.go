package session

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-bgpd/internal/core/acceptor"
	"github.com/dep2p/go-bgpd/internal/core/eventbus"
	"github.com/dep2p/go-bgpd/internal/core/peerindex"
	"github.com/dep2p/go-bgpd/internal/core/sysparams"
	"github.com/dep2p/go-bgpd/pkg/types"
)

// loopbackConn 返回一条本地 TCP 连接的服务端
func loopbackConn(t *testing.T) net.Conn {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	client, err := net.DialTimeout("tcp", l.Addr().String(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	server, err := l.Accept()
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })
	return server
}

// TestModule_WatchDeliversStaged 测试模块在后台把新暂存的连接交给已激活的会话
func TestModule_WatchDeliversStaged(t *testing.T) {
	var (
		ix      *peerindex.Index
		adapter *acceptor.Adapter
		binder  *Binder
	)

	app := fxtest.New(t,
		fx.Supply(&sysparams.Params{OpenMax: 1024}),
		peerindex.Module(),
		eventbus.Module(),
		acceptor.Module(),
		Module(),
		fx.Populate(&ix, &adapter, &binder),
	)
	app.RequireStart()
	defer app.RequireStop()

	peer := &testPeer{name: "lo"}
	id := ix.Register(peer, types.MustParseAddress("127.0.0.1"))

	sess := &testSession{}
	res, err := binder.Activate(context.Background(), id, peer, sess)
	require.NoError(t, err)
	require.Equal(t, Passive, res, "no transport injected, nothing to dial")

	require.Eventually(t, func() bool {
		// 订阅在 OnStart 的后台协程中建立，重复投递直到被接管
		if len(sess.attached()) > 0 {
			return true
		}
		if v, ok := ix.SeekID(id); ok && !v.HasStaged() {
			adapter.HandleInbound(loopbackConn(t))
		}
		return len(sess.attached()) > 0
	}, 2*time.Second, 20*time.Millisecond)

	calls := sess.attached()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].inbound)

	// 接管后期限定时器被取消
	assert.Eventually(t, func() bool {
		return adapter.Expirer().Pending() == 0
	}, time.Second, 5*time.Millisecond)
}

// TestModule_WithoutEventBus 测试未注入事件总线时只提供绑定器
func TestModule_WithoutEventBus(t *testing.T) {
	var binder *Binder

	app := fxtest.New(t,
		fx.Supply(&sysparams.Params{OpenMax: 1024}),
		peerindex.Module(),
		Module(),
		fx.Populate(&binder),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, binder)
	assert.Equal(t, 0, binder.Active())
}
