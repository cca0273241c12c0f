// Package metrics exposes Prometheus counters for leaderboard mutations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bandpoints"

// Metrics holds the service counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	mutations       *prometheus.CounterVec
	denials         *prometheus.CounterVec
	pointsAwarded   prometheus.Counter
	pointsDeducted  prometheus.Counter
	resets          prometheus.Counter
	signIns         *prometheus.CounterVec
	liveSubscribers prometheus.Gauge
}

// New creates a registry with Go runtime collectors and the service counters.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Applied admin mutations by action.",
		}, []string{"action"}),
		denials: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permission_denials_total",
			Help:      "Rejected calls by action.",
		}, []string{"action"}),
		pointsAwarded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_awarded_total",
			Help:      "Sum of positive point adjustments.",
		}),
		pointsDeducted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_deducted_total",
			Help:      "Sum of the magnitudes of negative point adjustments.",
		}),
		resets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "point_resets_total",
			Help:      "Bulk point resets.",
		}),
		signIns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_ins_total",
			Help:      "Sign-in attempts by result.",
		}, []string{"result"}),
		liveSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_subscribers",
			Help:      "Open member watch streams.",
		}),
	}
}

// Handler returns the Prometheus /metrics handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Mutation records an applied mutation.
func (m *Metrics) Mutation(action string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(action).Inc()
}

// Denied records a rejected call.
func (m *Metrics) Denied(action string) {
	if m == nil {
		return
	}
	m.denials.WithLabelValues(action).Inc()
}

// PointsAdjusted records the size of an adjustment.
func (m *Metrics) PointsAdjusted(delta int64) {
	if m == nil {
		return
	}
	switch {
	case delta > 0:
		m.pointsAwarded.Add(float64(delta))
	case delta < 0:
		m.pointsDeducted.Add(-float64(delta))
	}
}

// Reset records a bulk reset.
func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.resets.Inc()
}

// SignIn records a sign-in attempt.
func (m *Metrics) SignIn(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.signIns.WithLabelValues(result).Inc()
}

// StreamOpened and StreamClosed track open watch streams.
func (m *Metrics) StreamOpened() {
	if m == nil {
		return
	}
	m.liveSubscribers.Inc()
}

func (m *Metrics) StreamClosed() {
	if m == nil {
		return
	}
	m.liveSubscribers.Dec()
}
