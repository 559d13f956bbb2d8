package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-bgpd/internal/core/peerindex"
)

// StatsSource 提供对端索引统计
type StatsSource interface {
	Stats() peerindex.Stats
}

// IndexCollector 在抓取时读取对端索引统计
//
// 每次抓取只调用一次 Stats()，持索引锁的时间与一次查询相同。
type IndexCollector struct {
	src StatsSource

	capacity *prometheus.Desc
	inUse    *prometheus.Desc
	free     *prometheus.Desc
	staged   *prometheus.Desc
	grows    *prometheus.Desc
}

var _ prometheus.Collector = (*IndexCollector)(nil)

// NewIndexCollector 创建索引收集器
func NewIndexCollector(src StatsSource) *IndexCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "peerindex", name), help, nil, nil)
	}
	return &IndexCollector{
		src:      src,
		capacity: desc("capacity", "Slots allocated in the entry pool."),
		inUse:    desc("in_use", "Registered peers."),
		free:     desc("free", "Slots on the free list."),
		staged:   desc("staged", "Inbound connections awaiting adoption."),
		grows:    desc("grows_total", "Entry pool growth events."),
	}
}

// Describe 实现 prometheus.Collector
func (c *IndexCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.capacity
	ch <- c.inUse
	ch <- c.free
	ch <- c.staged
	ch <- c.grows
}

// Collect 实现 prometheus.Collector
func (c *IndexCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Stats()
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(st.Capacity))
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(st.InUse))
	ch <- prometheus.MustNewConstMetric(c.free, prometheus.GaugeValue, float64(st.Free))
	ch <- prometheus.MustNewConstMetric(c.staged, prometheus.GaugeValue, float64(st.Staged))
	ch <- prometheus.MustNewConstMetric(c.grows, prometheus.CounterValue, float64(st.Grows))
}
