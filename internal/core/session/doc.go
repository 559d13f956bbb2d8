// Package session 实现会话与对端索引的绑定
//
// 会话状态机本身不在此包内，只通过 pkgif.Session 接口交付连接。
// 激活顺序：
//
//  1. SetSession 把会话挂到已知编号的条目上（不做地址查找）
//  2. AdoptAccepted 接管已暂存的入站连接
//  3. 没有暂存连接时，向邻居发起出站拨号
//
// Watch 订阅 EvtConnectionStaged，把激活之后才到达的入站连接交给对应会话。
package session
