// Package metrics exposes Prometheus collectors for the API and the workers.
//
// All recording methods are safe on a nil *Metrics so that components can be
// constructed without instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"clarify/internal/cache"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clarify"

type Metrics struct {
	registry *prometheus.Registry

	batchRuns       *prometheus.CounterVec
	batchDuration   prometheus.Histogram
	groupsEvaluated *prometheus.CounterVec
	badgesAwarded   *prometheus.CounterVec
	badgesExported  *prometheus.CounterVec
	aiRequests      *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates the collectors on a dedicated registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		batchRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "achievement_batch_runs_total",
			Help:      "Monthly achievement batch runs by result.",
		}, []string{"result"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "achievement_batch_duration_seconds",
			Help:      "Wall time of monthly achievement batch runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		groupsEvaluated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "achievement_groups_evaluated_total",
			Help:      "Groups visited by the monthly batch by outcome.",
		}, []string{"outcome"}),
		badgesAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "badges_awarded_total",
			Help:      "Badges issued by tier and evaluation path.",
		}, []string{"tier", "source"}),
		badgesExported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "badges_exported_total",
			Help:      "Badge export attempts by result.",
		}, []string{"result"}),
		aiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_parse_requests_total",
			Help:      "AI-assisted movement parsing requests by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.batchRuns,
		m.batchDuration,
		m.groupsEvaluated,
		m.badgesAwarded,
		m.badgesExported,
		m.aiRequests,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RegisterCache publishes hit, miss, eviction and size figures of a named cache.
func (m *Metrics) RegisterCache(name string, stats func() cache.Stats) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{"cache": name}
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_hits_total", Help: "Cache hits.", ConstLabels: labels,
		}, func() float64 { return float64(stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_misses_total", Help: "Cache misses.", ConstLabels: labels,
		}, func() float64 { return float64(stats().Misses) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_evictions_total", Help: "Entries dropped for capacity.", ConstLabels: labels,
		}, func() float64 { return float64(stats().Evictions) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cache_entries", Help: "Entries currently cached.", ConstLabels: labels,
		}, func() float64 { return float64(stats().Size) }),
	)
}

// BatchRun records a finished monthly batch run.
func (m *Metrics) BatchRun(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.batchRuns.WithLabelValues(result).Inc()
	m.batchDuration.Observe(elapsed.Seconds())
}

// GroupEvaluated records the outcome for one group: evaluated, skipped or failed.
func (m *Metrics) GroupEvaluated(outcome string) {
	if m == nil {
		return
	}
	m.groupsEvaluated.WithLabelValues(outcome).Inc()
}

// BadgeAwarded counts a committed badge. source is "monthly" or "goal".
func (m *Metrics) BadgeAwarded(tier, source string) {
	if m == nil {
		return
	}
	m.badgesAwarded.WithLabelValues(tier, source).Inc()
}

func (m *Metrics) BadgeExported(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.badgesExported.WithLabelValues(result).Inc()
}

// AIRequest counts parsing requests: parsed, quota_exceeded or failed.
func (m *Metrics) AIRequest(outcome string) {
	if m == nil {
		return
	}
	m.aiRequests.WithLabelValues(outcome).Inc()
}

// HTTPRequest records one served request.
func (m *Metrics) HTTPRequest(method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
