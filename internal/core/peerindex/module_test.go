package peerindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-bgpd/config"
	"github.com/dep2p/go-bgpd/internal/core/sysparams"
	pkgif "github.com/dep2p/go-bgpd/pkg/interfaces"
)

// ============================================================================
// Fx 模块测试
// ============================================================================

// TestModule_Load 测试模块加载
func TestModule_Load(t *testing.T) {
	var (
		ix   *Index
		view pkgif.PeerIndex
	)

	app := fxtest.New(t,
		Module(),
		fx.Populate(&ix, &view),
	)
	defer app.RequireStart().RequireStop()

	require.NotNil(t, ix)
	assert.Same(t, ix, view)
}

// TestModule_CapacityFromSysParams 测试按文件描述符上限推导容量
func TestModule_CapacityFromSysParams(t *testing.T) {
	cfg := config.NewConfig()
	cfg.PeerIndex.MinCapacity = 16
	cfg.PeerIndex.DescriptorsPerPeer = 4
	params := &sysparams.Params{OpenMax: 400}

	var ix *Index
	app := fxtest.New(t,
		fx.Supply(cfg, params),
		Module(),
		fx.Populate(&ix),
	)
	defer app.RequireStart().RequireStop()

	assert.Equal(t, 100, ix.Stats().Capacity)
}

// TestModule_StopFinishes 测试停止时关闭索引
func TestModule_StopFinishes(t *testing.T) {
	var ix *Index
	app := fxtest.New(t,
		fx.Supply(&sysparams.Params{OpenMax: 1024}),
		Module(),
		fx.Populate(&ix),
	)
	app.RequireStart()

	ix.Register(&testPeer{name: "a"}, addr("10.0.0.1"))
	conn := newConn(t)
	_, ok := ix.SeekAccept(addr("10.0.0.1"), conn)
	require.True(t, ok)

	app.RequireStop()

	assert.True(t, isClosed(conn))
	_, ok = ix.SeekAccept(addr("10.0.0.1"), newConn(t))
	assert.False(t, ok)
}
