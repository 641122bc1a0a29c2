// Package metrics provides Prometheus metrics for the skillrate service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation label values for computation metrics.
const (
	OpRate     = "rate"
	OpQuality  = "quality"
	OpExpected = "expected_scores"
)

// Manager manages all Prometheus metrics for the skillrate service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Rating computations
	computations       *prometheus.CounterVec
	computationLatency *prometheus.HistogramVec
	computationErrors  *prometheus.CounterVec
	fallbacks          *prometheus.CounterVec
	matchQuality       prometheus.Histogram
	teamsPerMatch      prometheus.Histogram
	playersPerMatch    prometheus.Histogram

	// Ledger
	matchesAccepted  prometheus.Counter
	matchesDuplicate prometheus.Counter
	matchesRejected  prometheus.Counter
	matchesRated     prometheus.Counter
	ledgerPlayers    prometheus.Gauge
	ledgerUpdate     prometheus.Histogram
	ledgerQuery      prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	queueWait          prometheus.Histogram

	// Workers
	workerCount      prometheus.Gauge
	workerActive     prometheus.Gauge
	workerProcessing prometheus.Histogram
	workerErrors     prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "skillrate",
		subsystem:        "trueskill",
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
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.computations = auto.NewCounterVec(
		m.counterOpts("computations_total", "Total number of rating computations by operation"),
		[]string{"op"},
	)
	m.computationLatency = auto.NewHistogramVec(
		m.histogramOpts("computation_latency_milliseconds", "Rating computation latency in milliseconds", m.histogramBuckets),
		[]string{"op"},
	)
	m.computationErrors = auto.NewCounterVec(
		m.counterOpts("computation_errors_total", "Total number of failed computations by operation and error kind"),
		[]string{"op", "kind"},
	)
	m.fallbacks = auto.NewCounterVec(
		m.counterOpts("fallbacks_total", "Requests answered without a rating update"),
		[]string{"reason"},
	)
	m.matchQuality = auto.NewHistogram(
		m.histogramOpts("match_quality_ratio", "Distribution of match quality (0..1)", prometheus.LinearBuckets(0, 0.1, 11)),
	)
	m.teamsPerMatch = auto.NewHistogram(
		m.histogramOpts("teams_per_match", "Number of teams per rated match", prometheus.ExponentialBuckets(2, 2, 8)),
	)
	m.playersPerMatch = auto.NewHistogram(
		m.histogramOpts("players_per_match", "Number of players per rated match", prometheus.ExponentialBuckets(2, 2, 10)),
	)

	m.matchesAccepted = auto.NewCounter(m.counterOpts("matches_accepted_total", "Ledger matches accepted for rating"))
	m.matchesDuplicate = auto.NewCounter(m.counterOpts("matches_duplicate_total", "Ledger matches rejected as duplicates"))
	m.matchesRejected = auto.NewCounter(m.counterOpts("matches_rejected_total", "Ledger matches rejected by backpressure"))
	m.matchesRated = auto.NewCounter(m.counterOpts("matches_rated_total", "Ledger matches rated and written back"))
	m.ledgerPlayers = auto.NewGauge(m.gaugeOpts("ledger_players", "Number of players in the ledger"))
	m.ledgerUpdate = auto.NewHistogram(
		m.histogramOpts("ledger_update_latency_milliseconds", "Ledger write latency in milliseconds", m.histogramBuckets),
	)
	m.ledgerQuery = auto.NewHistogram(
		m.histogramOpts("ledger_query_latency_milliseconds", "Ledger read latency in milliseconds", m.histogramBuckets),
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current size of the match queue (backlog indicator)"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)"))
	m.queueEnqueue = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of matches enqueued"))
	m.queueDequeue = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of matches dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Total number of enqueue errors"))
	m.queueWait = auto.NewHistogram(
		m.histogramOpts("queue_wait_milliseconds", "Time a match waited in the queue in milliseconds", m.histogramBuckets),
	)

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured number of workers"))
	m.workerActive = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of workers currently rating a match"))
	m.workerProcessing = auto.NewHistogram(
		m.histogramOpts("worker_processing_latency_milliseconds", "Worker processing latency in milliseconds", m.histogramBuckets),
	)
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of worker errors"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// Rating computation metrics.

// RecordComputation counts a computation and its latency.
func RecordComputation(op string, latencyMs float64) {
	globalManager.computations.WithLabelValues(op).Inc()
	globalManager.computationLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordComputationError counts a failed computation.
func RecordComputationError(op, kind string) {
	globalManager.computationErrors.WithLabelValues(op, kind).Inc()
}

// RecordFallback counts a request answered without a rating update.
func RecordFallback(reason string) {
	globalManager.fallbacks.WithLabelValues(reason).Inc()
}

// RecordMatchQuality observes a match quality in [0,1].
func RecordMatchQuality(quality float64) {
	globalManager.matchQuality.Observe(quality)
}

// RecordMatchShape observes the team and player counts of a match.
func RecordMatchShape(teams, players int) {
	globalManager.teamsPerMatch.Observe(float64(teams))
	globalManager.playersPerMatch.Observe(float64(players))
}

// Ledger metrics.

// RecordMatchAccepted increments the accepted matches counter.
func RecordMatchAccepted() {
	globalManager.matchesAccepted.Inc()
}

// RecordMatchDuplicate increments the duplicate matches counter.
func RecordMatchDuplicate() {
	globalManager.matchesDuplicate.Inc()
}

// RecordMatchRejected increments the backpressure rejection counter.
func RecordMatchRejected() {
	globalManager.matchesRejected.Inc()
}

// RecordMatchRated increments the rated matches counter.
func RecordMatchRated() {
	globalManager.matchesRated.Inc()
}

// UpdateLedgerPlayers sets the number of players in the ledger.
func UpdateLedgerPlayers(count int) {
	globalManager.ledgerPlayers.Set(float64(count))
}

// RecordLedgerUpdateLatency records a ledger write latency.
func RecordLedgerUpdateLatency(latencyMs float64) {
	globalManager.ledgerUpdate.Observe(latencyMs)
}

// RecordLedgerQueryLatency records a ledger read latency.
func RecordLedgerQueryLatency(latencyMs float64) {
	globalManager.ledgerQuery.Observe(latencyMs)
}

// Queue metrics.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueWait records how long a match waited before a worker took it.
func RecordQueueWait(latencyMs float64) {
	globalManager.queueWait.Observe(latencyMs)
}

// Worker metrics.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActive.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessing.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// HTTP metrics.

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
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System metrics.

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
