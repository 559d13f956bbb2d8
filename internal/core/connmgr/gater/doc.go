// Package gater 实现入站/出站连接门控
//
// gater 在查询对端索引之前拦截连接：
//
//   - Filter: 按 CIDR 网段过滤（阻止列表优先于允许列表）
//   - Gater: 按单个地址封禁，并组合 Filter
//
// 被拒绝的连接由调用方静默关闭，门控本身不产生日志噪音。
//
// # 使用示例
//
//	g := gater.New(gater.NewFilter(true))
//	g.BlockAddr(types.MustParseAddress("192.0.2.7"))
//
//	if !g.InterceptAccept(remote) {
//	    conn.Close()
//	}
package gater
