// Package metrics provides Prometheus metrics for the combine leaderboard
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Engine metrics - the recomputation pipeline
	recomputations    prometheus.Counter
	recomputeErrors   prometheus.Counter
	recomputeDuration prometheus.Histogram
	dirtyCohorts      prometheus.Gauge
	cohortCount       prometheus.Gauge

	// Mutation metrics
	resultsSubmitted prometheus.Counter
	resultsCorrected prometheus.Counter
	resultsDeleted   prometheus.Counter
	playerTransfers  prometheus.Counter
	importRows       *prometheus.CounterVec

	// Read-path metrics
	rankingRequests prometheus.Counter
	whatIfRequests  prometheus.Counter

	// Operational health
	totalPlayers prometheus.Gauge

	// HTTP performance
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorsByComponent *prometheus.CounterVec

	// System performance
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "combine",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.recomputations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recomputations_total",
		Help:      "Total number of cohort recomputation passes completed",
	})

	m.recomputeErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_errors_total",
		Help:      "Total number of cohort recomputation passes that failed and left the cohort dirty",
	})

	m.recomputeDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_duration_milliseconds",
		Help:      "Histogram of cohort recomputation duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.dirtyCohorts = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dirty_cohorts",
		Help:      "Number of cohorts whose cached scores are awaiting recomputation",
	})

	m.cohortCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cohort_count",
		Help:      "Number of non-empty (age group, drill) cohorts tracked by the index",
	})

	m.resultsSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_submitted_total",
		Help:      "Total number of drill results submitted",
	})

	m.resultsCorrected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_corrected_total",
		Help:      "Total number of drill result corrections",
	})

	m.resultsDeleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_deleted_total",
		Help:      "Total number of drill results deleted",
	})

	m.playerTransfers = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "player_transfers_total",
		Help:      "Total number of player age-group transfers",
	})

	m.importRows = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "import_rows_total",
			Help:      "Total number of bulk-import rows by outcome",
		},
		[]string{"outcome"},
	)

	m.rankingRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_requests_total",
		Help:      "Total number of official ranking requests",
	})

	m.whatIfRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "what_if_requests_total",
		Help:      "Total number of what-if ranking previews",
	})

	m.totalPlayers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "total_players",
		Help:      "Total number of players on record",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total errors by component and kind",
		},
		[]string{"component", "kind"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current allocated memory in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
}

// GetRegistry returns the custom Prometheus registry used for scraping.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers recording against the global manager.

func RecordRecompute(durationMs float64) {
	globalManager.recomputations.Inc()
	globalManager.recomputeDuration.Observe(durationMs)
}

func RecordRecomputeError() {
	globalManager.recomputeErrors.Inc()
}

func UpdateDirtyCohorts(n int) {
	globalManager.dirtyCohorts.Set(float64(n))
}

func UpdateCohortCount(n int) {
	globalManager.cohortCount.Set(float64(n))
}

func RecordResultSubmitted() {
	globalManager.resultsSubmitted.Inc()
}

func RecordResultCorrected() {
	globalManager.resultsCorrected.Inc()
}

func RecordResultDeleted() {
	globalManager.resultsDeleted.Inc()
}

func RecordPlayerTransfer() {
	globalManager.playerTransfers.Inc()
}

func RecordImportRows(applied, skipped int) {
	globalManager.importRows.WithLabelValues("applied").Add(float64(applied))
	globalManager.importRows.WithLabelValues("skipped").Add(float64(skipped))
}

func RecordRankingRequest() {
	globalManager.rankingRequests.Inc()
}

func RecordWhatIfRequest() {
	globalManager.whatIfRequests.Inc()
}

func UpdateTotalPlayers(n int64) {
	globalManager.totalPlayers.Set(float64(n))
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

func UpdateSystemGoroutineCount(n int) {
	globalManager.systemGoroutineCount.Set(float64(n))
}
