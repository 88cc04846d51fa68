// Package metrics provides Prometheus metrics for the cadence scheduler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values shared by store and export metrics.
const (
	OutcomeSuccess   = "success"
	OutcomeTransport = "transport_error"
	OutcomeRejected  = "application_error"
	OutcomeNotFound  = "not_found"
)

// Manager owns every collector the scheduler reports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Event store round trips
	storeRequests       *prometheus.CounterVec
	storeRequestLatency *prometheus.HistogramVec

	// Working set
	eventsNormalized prometheus.Counter
	eventsDropped    *prometheus.CounterVec
	workingSetSize   prometheus.Gauge
	refreshes        *prometheus.CounterVec

	// Intents
	validationFailures *prometheus.CounterVec
	transitions        *prometheus.CounterVec
	filterEvaluations  prometheus.Counter
	filterResultSize   prometheus.Histogram
	exports            *prometheus.CounterVec

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// Process
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cadence",
		subsystem:        "scheduler",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.storeRequests = auto.NewCounterVec(
		m.counterOpts("store_requests_total", "Event store requests by operation and outcome"),
		[]string{"operation", "outcome"},
	)
	m.storeRequestLatency = auto.NewHistogramVec(
		m.histogramOpts("store_request_duration_milliseconds", "Event store request latency in milliseconds", m.histogramBuckets),
		[]string{"operation"},
	)

	m.eventsNormalized = auto.NewCounter(m.counterOpts("events_normalized_total", "Wire records normalized into calendar events"))
	m.eventsDropped = auto.NewCounterVec(
		m.counterOpts("events_dropped_total", "Wire records dropped from the working set"),
		[]string{"reason"},
	)
	m.workingSetSize = auto.NewGauge(m.gaugeOpts("working_set_size", "Events currently held in the working set"))
	m.refreshes = auto.NewCounterVec(
		m.counterOpts("refreshes_total", "Full working set refetches by outcome"),
		[]string{"outcome"},
	)

	m.validationFailures = auto.NewCounterVec(
		m.counterOpts("validation_failures_total", "Draft validation failures by field"),
		[]string{"field"},
	)
	m.transitions = auto.NewCounterVec(
		m.counterOpts("status_transitions_total", "Status transitions by target status and outcome"),
		[]string{"status", "outcome"},
	)
	m.filterEvaluations = auto.NewCounter(m.counterOpts("filter_evaluations_total", "Filter engine evaluations"))
	m.filterResultSize = auto.NewHistogram(m.histogramOpts(
		"filter_result_size", "Number of events returned by a filter evaluation",
		[]float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
	m.exports = auto.NewCounterVec(
		m.counterOpts("exports_total", "Calendar exports by source and outcome"),
		[]string{"source", "outcome"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status code"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordStoreRequest counts one event store request and observes its latency.
func RecordStoreRequest(operation, outcome string, latencyMs float64) {
	globalManager.storeRequests.WithLabelValues(operation, outcome).Inc()
	globalManager.storeRequestLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordEventsNormalized adds n successfully normalized records.
func RecordEventsNormalized(n int) {
	globalManager.eventsNormalized.Add(float64(n))
}

// RecordEventDropped counts a record dropped from the working set.
func RecordEventDropped(reason string) {
	globalManager.eventsDropped.WithLabelValues(reason).Inc()
}

// UpdateWorkingSetSize sets the working set gauge.
func UpdateWorkingSetSize(n int) {
	globalManager.workingSetSize.Set(float64(n))
}

// RecordRefresh counts a full refetch.
func RecordRefresh(outcome string) {
	globalManager.refreshes.WithLabelValues(outcome).Inc()
}

// RecordValidationFailure counts a failing draft field.
func RecordValidationFailure(field string) {
	globalManager.validationFailures.WithLabelValues(field).Inc()
}

// RecordTransition counts a status transition attempt.
func RecordTransition(status, outcome string) {
	globalManager.transitions.WithLabelValues(status, outcome).Inc()
}

// RecordFilterEvaluation counts a filter pass and its result size.
func RecordFilterEvaluation(resultSize int) {
	globalManager.filterEvaluations.Inc()
	globalManager.filterResultSize.Observe(float64(resultSize))
}

// RecordExport counts an export by source ("store" or "local").
func RecordExport(source, outcome string) {
	globalManager.exports.WithLabelValues(source, outcome).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
