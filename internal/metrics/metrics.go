// Package metrics exposes Prometheus metrics for catalog loading, draws and HTTP traffic.
//
// All Record methods are safe on a nil *Metrics, so components built without metrics need no guard.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Load outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeSnapshot = "snapshot"
	OutcomeError    = "error"
)

// Draw outcomes.
const (
	DrawStarted  = "started"
	DrawFinished = "finished"
	DrawStopped  = "stopped"
	DrawReopened = "reopened"
)

// Metrics contains the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	catalogLoadsTotal   *prometheus.CounterVec
	catalogLoadDuration *prometheus.HistogramVec
	catalogSheets       *prometheus.GaugeVec

	drawsTotal         *prometheus.CounterVec
	drawSessionsActive prometheus.Gauge

	filterDuration *prometheus.HistogramVec
	filterResults  *prometheus.HistogramVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
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

// Registry returns the registry the metrics were registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) initMetrics() {
	m.catalogLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_loads_total",
			Help: "Total number of dataset loads",
		},
		[]string{"game", "outcome"}, // outcome: success, snapshot, error
	)

	m.catalogLoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_load_duration_seconds",
			Help:    "Time taken to fetch and normalize a dataset",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"game"},
	)

	m.catalogSheets = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_sheets",
			Help: "Number of canonical sheets in the loaded dataset",
		},
		[]string{"game"},
	)

	m.drawsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draws_total",
			Help: "Total number of draw lifecycle transitions",
		},
		[]string{"game", "outcome"},
	)

	m.drawSessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "draw_sessions_active",
			Help: "Number of live draw sessions",
		},
	)

	m.filterDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filter_duration_seconds",
			Help:    "Time taken to filter a game's sheets",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"game"},
	)

	m.filterResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filter_results",
			Help:    "Number of sheets returned by a filter",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"game"},
	)

	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
}

// Describe implements the Collector interface.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.catalogLoadsTotal.Describe(ch)
	m.catalogLoadDuration.Describe(ch)
	m.catalogSheets.Describe(ch)
	m.drawsTotal.Describe(ch)
	m.drawSessionsActive.Describe(ch)
	m.filterDuration.Describe(ch)
	m.filterResults.Describe(ch)
	m.httpRequestsTotal.Describe(ch)
	m.httpRequestDuration.Describe(ch)
}

// Collect implements the Collector interface.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.catalogLoadsTotal.Collect(ch)
	m.catalogLoadDuration.Collect(ch)
	m.catalogSheets.Collect(ch)
	m.drawsTotal.Collect(ch)
	m.drawSessionsActive.Collect(ch)
	m.filterDuration.Collect(ch)
	m.filterResults.Collect(ch)
	m.httpRequestsTotal.Collect(ch)
	m.httpRequestDuration.Collect(ch)
}

// RecordLoad records a dataset load attempt.
func (m *Metrics) RecordLoad(game, outcome string, d time.Duration, sheets int) {
	if m == nil {
		return
	}
	m.catalogLoadsTotal.WithLabelValues(game, outcome).Inc()
	m.catalogLoadDuration.WithLabelValues(game).Observe(d.Seconds())
	if outcome != OutcomeError {
		m.catalogSheets.WithLabelValues(game).Set(float64(sheets))
	}
}

// RecordDraw records a draw lifecycle transition.
func (m *Metrics) RecordDraw(game, outcome string) {
	if m == nil {
		return
	}
	m.drawsTotal.WithLabelValues(game, outcome).Inc()
}

// SetActiveSessions sets the number of live draw sessions.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.drawSessionsActive.Set(float64(n))
}

// RecordFilter records one filter evaluation.
func (m *Metrics) RecordFilter(game string, d time.Duration, results int) {
	if m == nil {
		return
	}
	m.filterDuration.WithLabelValues(game).Observe(d.Seconds())
	m.filterResults.WithLabelValues(game).Observe(float64(results))
}

// RecordHTTPRequest records one served request. Route is the matched pattern, not the raw path.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
