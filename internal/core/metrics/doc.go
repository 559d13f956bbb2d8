// Package metrics 提供 Prometheus 监控指标
//
// 两类指标：
//
//   - Reporter: 入站接纳与会话接管的事件计数器，由热路径在释放索引锁后调用
//   - IndexCollector: 抓取时读取对端索引统计（容量/在用/空闲/暂存/增长次数）
//
// 指标注册在独立的 prometheus.Registry 上，启用 metrics.enable 时
// 通过 HTTP 暴露（默认 127.0.0.1:9179/metrics）。
//
// # 快速开始
//
//	reg := prometheus.NewRegistry()
//	r := metrics.NewPromReporter(reg)
//	reg.MustRegister(metrics.NewIndexCollector(ix))
//
//	r.AcceptRejected(metrics.ReasonUnknownPeer)
package metrics
