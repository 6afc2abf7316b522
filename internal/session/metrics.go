package session

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts canvas session activity.
type Metrics struct {
	registry    *prometheus.Registry
	opsApplied  *prometheus.CounterVec
	opsRejected *prometheus.CounterVec
	opDuration  *prometheus.HistogramVec
	sessions    prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		opsApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "flowcanvas_ops_applied_total", Help: "Operations applied to canvases"},
			[]string{"type"},
		),
		opsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "flowcanvas_ops_rejected_total", Help: "Operations refused by the engine"},
			[]string{"type", "reason"},
		),
		opDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowcanvas_op_duration_seconds",
				Help:    "Time to apply an operation and compile the frame",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"type"},
		),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flowcanvas_sessions_active",
			Help: "Open canvas sessions",
		}),
	}
	registry.MustRegister(m.opsApplied, m.opsRejected, m.opDuration, m.sessions)
	registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeOp(opType string, d time.Duration, reason string) {
	if m == nil {
		return
	}
	if reason != "" {
		m.opsRejected.WithLabelValues(opType, reason).Inc()
	} else {
		m.opsApplied.WithLabelValues(opType).Inc()
	}
	m.opDuration.WithLabelValues(opType).Observe(d.Seconds())
}

func (m *Metrics) sessionOpened() {
	if m != nil {
		m.sessions.Inc()
	}
}

func (m *Metrics) sessionClosed() {
	if m != nil {
		m.sessions.Dec()
	}
}
