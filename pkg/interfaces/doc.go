// Package interfaces 定义 go-bgpd 的公共接口
//
// 一个接口文件对应一个实现目录：
//   - peerindex.go      - 对端索引（internal/core/peerindex）及其外部协作者 Peer/Session
//   - eventbus.go       - 事件总线（internal/core/eventbus）
//
// Peer 与 Session 由索引之外的上下文创建和销毁，索引只持有非拥有引用。
package interfaces
