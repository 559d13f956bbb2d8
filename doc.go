// Package bgpd 组装 BGP 对端索引守护进程
//
// Daemon 通过 Fx 把以下组件装配在一起：
//
//	config ──► peerindex ──► acceptor ◄── transport/tcp
//	              │             │
//	              │             └──► eventbus ──► session
//	              └──► metrics
//
// 对端索引是核心：控制上下文注册/注销邻居，入站路径按地址接纳连接并
// 暂存，会话引擎激活时接管暂存连接或主动拨号。
//
// 基本用法：
//
//	cfg := config.NewConfig()
//	cfg.Neighbors = []config.NeighborConfig{{Address: "192.0.2.1"}}
//
//	d, err := bgpd.New(cfg)
//	if err != nil {
//	    return err
//	}
//	if err := d.Start(ctx); err != nil {
//	    return err
//	}
//	defer d.Close()
//
//	n, _ := d.Neighbor(types.MustParseAddress("192.0.2.1"))
//	res, err := d.Activate(ctx, n, mySession)
//
// 索引的不变量被破坏时（重复注册、条目不匹配、池耗尽）会以
// *peerindex.InvariantError panic，守护进程不恢复该 panic。
package bgpd
