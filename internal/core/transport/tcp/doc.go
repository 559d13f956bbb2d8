// Package tcp 实现 BGP 使用的 TCP 传输
//
// 提供：
//
//   - Listener: 监听配置的地址，接受的连接统一设置 NoDelay/KeepAlive
//   - Transport: 管理监听器，向邻居发起出站拨号（默认端口 179）
//
// 传输层只负责建立连接。入站连接交给 acceptor 经对端索引暂存，
// 出站连接由会话绑定直接交给会话。
//
// # 使用示例
//
//	t := tcp.NewTransport(tcp.NewConfig())
//	l, err := t.Listen(ctx, ":179")
//
//	conn, err := t.Dial(ctx, types.MustParseAddress("192.0.2.1"))
package tcp
