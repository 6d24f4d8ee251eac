// Package recorder Prometheus指标
package recorder

import (
	"github.com/Kevin-Rudy/goaxis/pkg/core"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 记录会话的运行指标
type Metrics struct {
	Samples      *prometheus.CounterVec // 按结果(ok/error)统计的样本数
	QueueDropped prometheus.Counter     // 队列满丢弃的值
	Events       *prometheus.CounterVec // 按类型统计的异常事件
	Skipped      prometheus.Counter     // 分析器跳过的值
	Active       prometheus.Gauge       // 是否有会话在运行
}

// NewMetrics 创建指标，reg为nil时不注册
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "goaxis_samples_total",
			Help: "Number of axis samples recorded, by result.",
		}, []string{"result"}),
		QueueDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "goaxis_queue_dropped_total",
			Help: "Number of values dropped because the analysis queue was full.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "goaxis_spc_events_total",
			Help: "Number of SPC anomaly events detected, by kind.",
		}, []string{"kind"}),
		Skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "goaxis_spc_skipped_total",
			Help: "Number of values the SPC analyzer could not evaluate.",
		}),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "goaxis_session_active",
			Help: "1 while a recording session is running.",
		}),
	}

	// 预先创建标签，使指标在首次命中前就可见
	m.Samples.WithLabelValues("ok")
	m.Samples.WithLabelValues("error")
	for _, kind := range core.EventKinds() {
		m.Events.WithLabelValues(string(kind))
	}

	if reg != nil {
		reg.MustRegister(m.Samples, m.QueueDropped, m.Events, m.Skipped, m.Active)
	}
	return m
}
