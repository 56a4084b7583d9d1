// Package metrics provides Prometheus metrics for the bonus tracker service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Report pipeline
	reportRuns       *prometheus.CounterVec
	reportRunErrors  prometheus.Counter
	reportDuration   prometheus.Histogram
	publishSuccesses prometheus.Counter
	publishFailures  prometheus.Counter
	previewsServed   prometheus.Counter

	// Ingestion
	ingestPages       prometheus.Counter
	ingestEntries     prometheus.Counter
	ingestSkipped     prometheus.Counter
	sourceErrors      prometheus.Counter
	sourceFetchMs     prometheus.Histogram
	rateFallbacks     prometheus.Counter
	rateUpdates       prometheus.Counter
	rateUpdateErrors  prometheus.Counter
	breakerOpenEvents prometheus.Counter

	// Snapshot cache
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	cacheInvalidated prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "iwd",
		subsystem:        "bonustracker",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.reportRuns = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "report_runs_total",
			Help:      "Total report pipeline runs by resolved mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	m.reportRunErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "report_run_errors_total",
		Help:      "Total report runs that failed before publishing",
	})

	m.reportDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "report_duration_milliseconds",
		Help:      "End-to-end report run duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.publishSuccesses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_successes_total",
		Help:      "Total messages delivered to the chat webhook",
	})

	m.publishFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_failures_total",
		Help:      "Total webhook deliveries rejected upstream",
	})

	m.previewsServed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "previews_served_total",
		Help:      "Total report previews composed without delivery",
	})

	m.ingestPages = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_pages_total",
		Help:      "Total time-entry pages fetched from the source",
	})

	m.ingestEntries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_entries_total",
		Help:      "Total raw time entries accepted after normalization",
	})

	m.ingestSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_entries_skipped_total",
		Help:      "Total malformed time entries dropped at the boundary",
	})

	m.sourceErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "source_errors_total",
		Help:      "Total failed requests against the time-entry source",
	})

	m.sourceFetchMs = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "source_fetch_duration_milliseconds",
		Help:      "Duration of full time-entry fetches in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.rateFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rate_store_fallbacks_total",
		Help:      "Total runs that degraded to the global default rate",
	})

	m.rateUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rate_updates_total",
		Help:      "Total committed rate-table updates",
	})

	m.rateUpdateErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rate_update_errors_total",
		Help:      "Total rate-table updates rejected or failed upstream",
	})

	m.breakerOpenEvents = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "source_breaker_open_total",
		Help:      "Total requests rejected by an open source circuit breaker",
	})

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_cache_hits_total",
		Help:      "Total dashboard snapshot cache hits",
	})

	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_cache_misses_total",
		Help:      "Total dashboard snapshot cache misses or expiries",
	})

	m.cacheInvalidated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_cache_invalidations_total",
		Help:      "Total explicit snapshot cache invalidations",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by endpoint, method, and status",
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
			Help:      "Total errors by component and type",
		},
		[]string{"component", "error_type"},
	)

	m.errorsByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total HTTP errors by endpoint, method, and type",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Process heap allocation in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RecordReportRun counts a completed report run by mode and outcome.
func RecordReportRun(mode, outcome string) {
	globalManager.reportRuns.WithLabelValues(mode, outcome).Inc()
}

// RecordReportRunError counts a report run that failed before publishing.
func RecordReportRunError() {
	globalManager.reportRunErrors.Inc()
}

// RecordReportDuration records an end-to-end report run duration.
func RecordReportDuration(ms float64) {
	globalManager.reportDuration.Observe(ms)
}

// RecordPublishSuccess counts a delivered webhook message.
func RecordPublishSuccess() {
	globalManager.publishSuccesses.Inc()
}

// RecordPublishFailure counts a webhook delivery rejected upstream.
func RecordPublishFailure() {
	globalManager.publishFailures.Inc()
}

// RecordPreviewServed counts a composed-but-not-delivered report.
func RecordPreviewServed() {
	globalManager.previewsServed.Inc()
}

// RecordIngestPage counts one fetched source page.
func RecordIngestPage() {
	globalManager.ingestPages.Inc()
}

// RecordIngestEntries counts entries accepted after normalization.
func RecordIngestEntries(n int) {
	globalManager.ingestEntries.Add(float64(n))
}

// RecordIngestSkipped counts malformed entries dropped at the boundary.
func RecordIngestSkipped(n int) {
	globalManager.ingestSkipped.Add(float64(n))
}

// RecordSourceError counts a failed request against the time-entry source.
func RecordSourceError() {
	globalManager.sourceErrors.Inc()
}

// RecordSourceFetchDuration records the duration of a full entry fetch.
func RecordSourceFetchDuration(ms float64) {
	globalManager.sourceFetchMs.Observe(ms)
}

// RecordRateFallback counts a run degraded to the global default rate.
func RecordRateFallback() {
	globalManager.rateFallbacks.Inc()
}

// RecordRateUpdate counts a committed rate-table update.
func RecordRateUpdate() {
	globalManager.rateUpdates.Inc()
}

// RecordRateUpdateError counts a rejected or failed rate-table update.
func RecordRateUpdateError() {
	globalManager.rateUpdateErrors.Inc()
}

// RecordBreakerOpen counts a request rejected by an open circuit breaker.
func RecordBreakerOpen() {
	globalManager.breakerOpenEvents.Inc()
}

// RecordCacheHit counts a snapshot cache hit.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss counts a snapshot cache miss or expiry.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// RecordCacheInvalidation counts an explicit cache invalidation.
func RecordCacheInvalidation() {
	globalManager.cacheInvalidated.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an HTTP error with endpoint, method, and type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the current heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}
