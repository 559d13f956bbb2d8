// Package acceptor 实现入站连接接纳
//
// 监听器接受的每条连接依次经过：
//
//  1. 解析远端地址（忽略端口）
//  2. 网段过滤与地址封禁（gater）
//  3. 接纳速率限制（golang.org/x/time/rate）
//  4. 对端索引 SeekAccept：未注册或管理关闭的对端被拒绝
//
// 任一步拒绝时连接被立即关闭，只记 Debug 日志和拒绝计数。
// 暂存成功后由 Expirer 按期限调度丢弃，并在事件总线上发布
// types.EvtConnectionStaged，会话绑定据此接管连接。
package acceptor
