// Package metrics provides Prometheus metrics for the SoloQ rating service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	settlements     *prometheus.CounterVec
	ratingDelta     prometheus.Histogram
	storeErrors     *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
	cacheResults    *prometheus.CounterVec
	ratingDrift     prometheus.Gauge
	reconcileRuns   *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDurationsMs *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // package-level manager backs the Record* helpers

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager()
}

// NewManager creates a manager registered on its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "soloq",
		subsystem:        "rating",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.settlements = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "settlements_total",
		Help:      "Settlement attempts by result (ok, validation, identity, rate_limited, store).",
	}, []string{"result"})

	m.ratingDelta = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "delta",
		Help:      "Distribution of applied rating deltas.",
		Buckets:   prometheus.LinearBuckets(-40, 10, 9),
	})

	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Store failures by settlement step.",
	}, []string{"step"})

	m.rateLimited = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter, by route.",
	}, []string{"route"})

	m.cacheResults = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_cache_total",
		Help:      "Leaderboard cache lookups by result (hit, miss, error).",
	}, []string{"result"})

	m.ratingDrift = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "drift_entries",
		Help:      "Player/specialty pairs whose live rating disagrees with the audit ledger at the last reconciliation.",
	})

	m.reconcileRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_runs_total",
		Help:      "Reconciliation runs by result.",
	}, []string{"result"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	m.httpDurationsMs = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method", "status"})

	m.registry.MustRegister(collectors.NewGoCollector())
}

// Handler serves the manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Default returns the package-level manager.
func Default() *Manager { return globalManager }

// Handler serves the package-level registry.
func Handler() http.Handler { return globalManager.Handler() }

func RecordSettlement(result string)         { globalManager.settlements.WithLabelValues(result).Inc() }
func RecordRatingDelta(delta int)            { globalManager.ratingDelta.Observe(float64(delta)) }
func RecordStoreError(step string)           { globalManager.storeErrors.WithLabelValues(step).Inc() }
func RecordRateLimited(route string)         { globalManager.rateLimited.WithLabelValues(route).Inc() }
func RecordLeaderboardCache(result string)   { globalManager.cacheResults.WithLabelValues(result).Inc() }
func UpdateRatingDrift(entries int)          { globalManager.ratingDrift.Set(float64(entries)) }
func RecordReconcileRun(result string)       { globalManager.reconcileRuns.WithLabelValues(result).Inc() }
func RecordHTTPRequest(route, method, status string) {
	globalManager.httpRequests.WithLabelValues(route, method, status).Inc()
}

func RecordHTTPRequestDuration(route, method, status string, durationMs float64) {
	globalManager.httpDurationsMs.WithLabelValues(route, method, status).Observe(durationMs)
}
