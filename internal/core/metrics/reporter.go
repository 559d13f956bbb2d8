package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bgpd"

// 入站拒绝原因（metric label）
const (
	// ReasonUnknownPeer 地址未注册或对端被管理关闭
	ReasonUnknownPeer = "unknown_peer"
	// ReasonFiltered 被网段过滤或地址封禁
	ReasonFiltered = "filtered"
	// ReasonRateLimited 超过接纳速率
	ReasonRateLimited = "rate_limited"
	// ReasonUnresolved 无法解析远端地址
	ReasonUnresolved = "unresolved"
	// ReasonClosed 索引已关闭
	ReasonClosed = "closed"
)

// Reporter 记录入站接纳和会话接管事件
type Reporter interface {
	// AcceptAdmitted 入站连接被暂存
	AcceptAdmitted()

	// AcceptRejected 入站连接被拒绝并关闭
	AcceptRejected(reason string)

	// StagedExpired 暂存连接超过期限被丢弃
	StagedExpired()

	// SessionAttached 连接交给会话，inbound 表示来自暂存连接
	SessionAttached(inbound bool)
}

// 确保实现了接口
var (
	_ Reporter = (*PromReporter)(nil)
	_ Reporter = NopReporter{}
)

// PromReporter 基于 Prometheus 计数器的 Reporter
type PromReporter struct {
	admitted prometheus.Counter
	rejected *prometheus.CounterVec
	expired  prometheus.Counter
	attached *prometheus.CounterVec
}

// NewPromReporter 创建 Reporter 并注册到 reg
func NewPromReporter(reg prometheus.Registerer) *PromReporter {
	r := &PromReporter{
		admitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accept",
			Name:      "admitted_total",
			Help:      "Inbound connections staged on a peer entry.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accept",
			Name:      "rejected_total",
			Help:      "Inbound connections closed without staging, by reason.",
		}, []string{"reason"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accept",
			Name:      "expired_total",
			Help:      "Staged connections discarded after their deadline.",
		}),
		attached: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "attached_total",
			Help:      "Connections handed to sessions, by direction.",
		}, []string{"direction"}),
	}

	reg.MustRegister(r.admitted, r.rejected, r.expired, r.attached)
	return r
}

// AcceptAdmitted 实现 Reporter
func (r *PromReporter) AcceptAdmitted() {
	r.admitted.Inc()
}

// AcceptRejected 实现 Reporter
func (r *PromReporter) AcceptRejected(reason string) {
	r.rejected.WithLabelValues(reason).Inc()
}

// StagedExpired 实现 Reporter
func (r *PromReporter) StagedExpired() {
	r.expired.Inc()
}

// SessionAttached 实现 Reporter
func (r *PromReporter) SessionAttached(inbound bool) {
	dir := "outbound"
	if inbound {
		dir = "inbound"
	}
	r.attached.WithLabelValues(dir).Inc()
}

// NopReporter 不记录任何指标
type NopReporter struct{}

func (NopReporter) AcceptAdmitted()       {}
func (NopReporter) AcceptRejected(string) {}
func (NopReporter) StagedExpired()        {}
func (NopReporter) SessionAttached(bool)  {}
