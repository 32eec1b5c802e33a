// Package metrics provides Prometheus metrics for the outbreak risk dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the dashboard.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Assessment metrics
	assessments     *prometheus.CounterVec
	labelFlips      *prometheus.CounterVec
	classifyLatency prometheus.Histogram
	invalidInputs   prometheus.Counter
	modelErrors     prometheus.Counter
	modelLoaded     prometheus.Gauge

	// Session metrics
	logins          *prometheus.CounterVec
	logouts         prometheus.Counter
	revokedSessions prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "outbreak",
		subsystem:        "dashboard",
		histogramBuckets: prometheus.DefBuckets,
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

	m.assessments = auto.NewCounterVec(
		m.counterOpts("assessments_total", "Completed assessments by final label and recommendation tier"),
		[]string{"label", "tier"},
	)
	m.labelFlips = auto.NewCounterVec(
		m.counterOpts("label_flips_total", "Model decisions overridden by the vaccination adjustment"),
		[]string{"from", "to"},
	)
	m.classifyLatency = auto.NewHistogram(
		m.histogramOpts("classify_latency_milliseconds", "Model prediction latency in milliseconds", m.histogramBuckets),
	)
	m.invalidInputs = auto.NewCounter(
		m.counterOpts("invalid_inputs_total", "Assessment requests rejected for missing or invalid fields"),
	)
	m.modelErrors = auto.NewCounter(
		m.counterOpts("model_errors_total", "Assessment requests that failed because the model was unavailable"),
	)
	m.modelLoaded = auto.NewGauge(
		m.gaugeOpts("model_loaded", "1 when a classifier artifact is loaded, 0 otherwise"),
	)

	m.logins = auto.NewCounterVec(
		m.counterOpts("logins_total", "Login attempts by result"),
		[]string{"result"},
	)
	m.logouts = auto.NewCounter(
		m.counterOpts("logouts_total", "Sessions ended by logout"),
	)
	m.revokedSessions = auto.NewGauge(
		m.gaugeOpts("revoked_sessions", "Revoked session ids held by the in-memory store"),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// RecordAssessment counts a completed assessment.
func RecordAssessment(label, tier string) {
	globalManager.assessments.WithLabelValues(label, tier).Inc()
}

// RecordLabelFlip counts a vaccination adjustment from one label to another.
func RecordLabelFlip(from, to string) {
	globalManager.labelFlips.WithLabelValues(from, to).Inc()
}

// RecordClassifyLatency records model prediction latency in milliseconds.
func RecordClassifyLatency(latencyMs float64) {
	globalManager.classifyLatency.Observe(latencyMs)
}

// RecordInvalidInput increments the invalid input counter.
func RecordInvalidInput() {
	globalManager.invalidInputs.Inc()
}

// RecordModelError increments the model error counter.
func RecordModelError() {
	globalManager.modelErrors.Inc()
}

// UpdateModelLoaded flags whether a classifier is available.
func UpdateModelLoaded(loaded bool) {
	v := 0.0
	if loaded {
		v = 1
	}
	globalManager.modelLoaded.Set(v)
}

// RecordLogin counts a login attempt; result is "success" or "failure".
func RecordLogin(result string) {
	globalManager.logins.WithLabelValues(result).Inc()
}

// RecordLogout increments the logout counter.
func RecordLogout() {
	globalManager.logouts.Inc()
}

// UpdateRevokedSessions sets the number of revoked sessions held in memory.
func UpdateRevokedSessions(count int) {
	globalManager.revokedSessions.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
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

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
