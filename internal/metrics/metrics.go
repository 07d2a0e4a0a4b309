// Package metrics exposes the service's Prometheus collectors. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aviatorpro"

// Skip reasons reported by the generator.
const (
	SkipExisting   = "existing"
	SkipLocked     = "locked"
	SkipConflict   = "conflict"
	SkipNoOutcomes = "no_outcomes"
	SkipFetchError = "fetch_error"
	SkipCheckError = "check_error"
	SkipDisabled   = "disabled"
)

type Metrics struct {
	SignalsGenerated    *prometheus.CounterVec
	GenerationSkipped   *prometheus.CounterVec
	PersistFailures     *prometheus.CounterVec
	OutcomesIngested    *prometheus.CounterVec
	OutcomesQuarantined *prometheus.CounterVec
	NotifyFailures      *prometheus.CounterVec
	SubscriberDrops     prometheus.Counter
	RetentionDeleted    prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers every collector on reg. Pass prometheus.NewRegistry() in
// tests to keep them isolated.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SignalsGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_generated_total",
			Help:      "Signals persisted, by platform and prediction type.",
		}, []string{"platform", "type"}),
		GenerationSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_generation_skipped_total",
			Help:      "Generation attempts that produced no new signal.",
		}, []string{"platform", "reason"}),
		PersistFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_persist_failures_total",
			Help:      "Signals returned to the caller without being stored.",
		}, []string{"platform"}),
		OutcomesIngested: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_ingested_total",
			Help:      "Outcome rows accepted for storage, by source.",
		}, []string{"source"}),
		OutcomesQuarantined: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_quarantined_total",
			Help:      "Outcome records dropped at the boundary, by stage.",
		}, []string{"platform", "stage"}),
		NotifyFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_notify_failures_total",
			Help:      "Notifier errors after a signal was stored.",
		}, []string{"notifier"}),
		SubscriberDrops: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_subscriber_drops_total",
			Help:      "Signals not delivered to a slow stream subscriber.",
		}),
		RetentionDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_retention_deleted_total",
			Help:      "Signals removed by the retention job.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		gatherer: reg,
	}
}

func (m *Metrics) Generated(platform, typ string) {
	if m == nil {
		return
	}
	m.SignalsGenerated.WithLabelValues(platform, typ).Inc()
}

func (m *Metrics) Skipped(platform, reason string) {
	if m == nil {
		return
	}
	m.GenerationSkipped.WithLabelValues(platform, reason).Inc()
}

func (m *Metrics) PersistFailed(platform string) {
	if m == nil {
		return
	}
	m.PersistFailures.WithLabelValues(platform).Inc()
}

func (m *Metrics) Ingested(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.OutcomesIngested.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) Quarantined(platform, stage string) {
	if m == nil {
		return
	}
	m.OutcomesQuarantined.WithLabelValues(platform, stage).Inc()
}

func (m *Metrics) NotifyFailed(notifier string) {
	if m == nil {
		return
	}
	m.NotifyFailures.WithLabelValues(notifier).Inc()
}

func (m *Metrics) SubscriberDropped() {
	if m == nil {
		return
	}
	m.SubscriberDrops.Inc()
}

func (m *Metrics) RetentionRemoved(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.RetentionDeleted.Add(float64(n))
}

// GinMiddleware records request counts and latency per route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Register mounts /metrics on r.
func (m *Metrics) Register(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(m.Handler()))
}
