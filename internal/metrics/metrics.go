// Package metrics provides Prometheus metrics for the journal and its HTTP surface.
//
// Every Record method is safe to call on a nil receiver so that callers can
// run without metrics (CLI, tests).
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "moodjournal"

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics groups the journal and HTTP collectors.
type Metrics struct {
	registry *prometheus.Registry

	entryOpsTotal     *prometheus.CounterVec
	storeErrorsTotal  *prometheus.CounterVec
	unsavedEntries    prometheus.Gauge
	statsCacheTotal   *prometheus.CounterVec
	statsComputeTime  prometheus.Histogram
	statsEntriesSeen  prometheus.Gauge
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New creates the collectors and registers them with registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// NewDefault creates metrics on a fresh registry that also carries the Go
// runtime and process collectors.
func NewDefault() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return New(registry)
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) initMetrics() {
	m.entryOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entry_operations_total",
			Help:      "Journal entry operations by kind and outcome",
		},
		[]string{"operation", "status"}, // operation: add, delete, retry, load
	)

	m.storeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Entry store failures that left the journal in degraded mode",
		},
		[]string{"operation"},
	)

	m.unsavedEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unsaved_entries",
			Help:      "Entries held in memory because the store rejected them",
		},
	)

	m.statsCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_cache_total",
			Help:      "Stats cache lookups by result",
		},
		[]string{"result"}, // hit, miss
	)

	m.statsComputeTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stats_compute_duration_seconds",
			Help:      "Time spent deriving statistics from the entry collection",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs to ~1.6s
		},
	)

	m.statsEntriesSeen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stats_entries",
			Help:      "Entries included in the most recent statistics computation",
		},
	)

	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code",
		},
		[]string{"method", "route", "status_code"},
	)

	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.entryOpsTotal,
		m.storeErrorsTotal,
		m.unsavedEntries,
		m.statsCacheTotal,
		m.statsComputeTime,
		m.statsEntriesSeen,
		m.httpRequestsTotal,
		m.httpDuration,
	}
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// RecordEntryOperation counts one entry operation.
func (m *Metrics) RecordEntryOperation(operation string, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.entryOpsTotal.WithLabelValues(operation, status).Inc()
}

// RecordStoreError counts a store failure.
func (m *Metrics) RecordStoreError(operation string) {
	if m == nil {
		return
	}
	m.storeErrorsTotal.WithLabelValues(operation).Inc()
}

// SetUnsaved reports the number of in-memory-only entries.
func (m *Metrics) SetUnsaved(n int) {
	if m == nil {
		return
	}
	m.unsavedEntries.Set(float64(n))
}

// RecordStatsCache counts a cache lookup.
func (m *Metrics) RecordStatsCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.statsCacheTotal.WithLabelValues(result).Inc()
}

// RecordStatsCompute observes one statistics computation.
func (m *Metrics) RecordStatsCompute(seconds float64, entries int) {
	if m == nil {
		return
	}
	m.statsComputeTime.Observe(seconds)
	m.statsEntriesSeen.Set(float64(entries))
}

// RecordHTTPRequest counts and times a request.
func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}
