// Package peerindex 实现 BGP 对端索引
//
// 对端索引是守护进程里所有已配置邻居的目录，负责：
//
//   - 条目池：预分配、按批增长的对端槽位
//   - 编号分配：PeerID = 槽位下标 + 1，0 保留为空编号，释放的编号后进先出复用
//   - 地址索引：远端地址到条目的唯一映射（忽略端口）
//   - 入站暂存：接受的连接在会话接管前暂存在条目上，同一地址只保留最新一条
//   - 会话绑定：按编号把会话挂到条目上，不做地址查找
//
// # 并发
//
// 所有状态由一把互斥锁保护，任何操作都只在自身执行期间持锁。
// 持锁期间不回调 Peer/Session，不做 I/O；被替换或丢弃的连接在释放锁之后关闭。
//
// # 不变量错误
//
// 重复注册、注销不匹配、编号越界、条目池耗尽等属于调用方缺陷，
// 以 *InvariantError 作为 panic 值抛出，不作为普通错误返回。
// 查找不到、入站被拒绝是正常结果，用 bool 表示。
//
// # 生命周期
//
//	ix := peerindex.New(cfg)          // 引擎启动前
//	id := ix.Register(peer, addr)     // 配置邻居
//	staged, ok := ix.SeekAccept(a, c) // 入站热路径
//	ix.SetSession(id, peer, sess)     // 会话建立
//	s, ok := ix.AdoptAccepted(addr)   // 接管暂存连接
//	ix.Deregister(peer, addr)         // 删除邻居
//	ix.Finish()                       // 引擎停止后
package peerindex
