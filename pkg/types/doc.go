// Package types 定义 go-bgpd 的基础类型
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据：
//
//   - PeerID: 对端索引槽位的稳定编号，0 表示"无对端"
//   - Address: 对端网络地址（IP + 可选 zone），作为索引键
//   - Evt*: 事件总线上传递的事件
package types
