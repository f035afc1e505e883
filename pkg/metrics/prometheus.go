// Package metrics provides Prometheus metrics for the shotline service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bucket layouts for the domain histograms.
var (
	distanceBuckets   = []float64{0.05, 0.1, 0.2, 0.35, 0.5, 0.75, 1, 1.5, 2, 3, 5}
	directionBuckets  = []float64{1, 3, 5, 8, 12, 15, 25, 45, 90, 135, 180}
	confidenceBuckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}
	gcPauseBuckets    = []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}
)

// Manager manages all Prometheus metrics for the shotline service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Analysis metrics
	shotsAnalyzed       *prometheus.CounterVec
	shotsIndeterminate  *prometheus.CounterVec
	ambiguousThrows     prometheus.Counter
	shotsDuplicate      prometheus.Counter
	distanceError       prometheus.Histogram
	directionError      prometheus.Histogram
	inferenceConfidence prometheus.Histogram
	analysisLatency     prometheus.Histogram
	backfillRuns        prometheus.Counter
	backfillShots       prometheus.Counter

	// Store metrics
	storedMetrics    prometheus.Gauge
	storeSaveLatency prometheus.Histogram
	storeErrors      *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "shotline",
		subsystem:        "accuracy",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.shotsAnalyzed = auto.NewCounterVec(
		m.counterOpts("shots_analyzed_total", "Shots that produced an accuracy record"),
		[]string{"shot_type", "error_magnitude"},
	)
	m.shotsIndeterminate = auto.NewCounterVec(
		m.counterOpts("shots_indeterminate_total", "Shots skipped because no thrown stone could be identified"),
		[]string{"shot_type"},
	)
	m.ambiguousThrows = auto.NewCounter(
		m.counterOpts("ambiguous_throws_total", "Shots with more than one new stone for the acting side"),
	)
	m.shotsDuplicate = auto.NewCounter(
		m.counterOpts("shots_duplicate_total", "Duplicate shot submissions"),
	)
	m.distanceError = auto.NewHistogram(
		m.histogramOpts("distance_error_meters", "Distance between inferred target and final position", distanceBuckets),
	)
	m.directionError = auto.NewHistogram(
		m.histogramOpts("direction_error_degrees", "Angular error between inferred target and final position", directionBuckets),
	)
	m.inferenceConfidence = auto.NewHistogram(
		m.histogramOpts("inference_confidence", "Confidence of inferred targets", confidenceBuckets),
	)
	m.analysisLatency = auto.NewHistogram(
		m.histogramOpts("analysis_latency_milliseconds", "Time to analyze one shot", m.histogramBuckets),
	)
	m.backfillRuns = auto.NewCounter(
		m.counterOpts("backfill_runs_total", "Backfill runs started"),
	)
	m.backfillShots = auto.NewCounter(
		m.counterOpts("backfill_shots_total", "Shots submitted by backfill runs"),
	)

	m.storedMetrics = auto.NewGauge(
		m.gaugeOpts("stored_metrics", "Accuracy records held by the store"),
	)
	m.storeSaveLatency = auto.NewHistogram(
		m.histogramOpts("store_save_latency_milliseconds", "Accuracy record save latency", m.histogramBuckets),
	)
	m.storeErrors = auto.NewCounterVec(
		m.counterOpts("store_errors_total", "Store operation failures"),
		[]string{"driver", "operation"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current size of the job queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)"))
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of jobs enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Total number of rejected enqueues"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured number of analyzer workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of running workers"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("worker_processing_latency_milliseconds", "Worker job latency in milliseconds", m.histogramBuckets),
	)
	m.workerErrorRate = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of worker errors"))

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds", gcPauseBuckets),
	)
}

// Analysis Metrics Functions.

// RecordShotAnalyzed counts a shot that produced an accuracy record.
func RecordShotAnalyzed(shotType, magnitude string) {
	globalManager.shotsAnalyzed.WithLabelValues(shotType, magnitude).Inc()
}

// RecordShotIndeterminate counts a shot without an identifiable thrown stone.
func RecordShotIndeterminate(shotType string) {
	globalManager.shotsIndeterminate.WithLabelValues(shotType).Inc()
}

// RecordAmbiguousThrow counts a shot with several new stones for one side.
func RecordAmbiguousThrow() {
	globalManager.ambiguousThrows.Inc()
}

// RecordShotDuplicate increments the duplicate submissions counter.
func RecordShotDuplicate() {
	globalManager.shotsDuplicate.Inc()
}

// RecordAccuracy observes the error and confidence values of one record.
func RecordAccuracy(distance, direction, confidence float64) {
	globalManager.distanceError.Observe(distance)
	globalManager.directionError.Observe(direction)
	globalManager.inferenceConfidence.Observe(confidence)
}

// RecordAnalysisLatency records analysis latency in milliseconds.
func RecordAnalysisLatency(latencyMs float64) {
	globalManager.analysisLatency.Observe(latencyMs)
}

// RecordBackfillRun counts a backfill run and the shots it submitted.
func RecordBackfillRun(submitted int) {
	globalManager.backfillRuns.Inc()
	globalManager.backfillShots.Add(float64(submitted))
}

// Store Metrics Functions.

// UpdateStoredMetrics sets the number of stored accuracy records.
func UpdateStoredMetrics(count int) {
	globalManager.storedMetrics.Set(float64(count))
}

// RecordStoreSaveLatency records store save latency in milliseconds.
func RecordStoreSaveLatency(latencyMs float64) {
	globalManager.storeSaveLatency.Observe(latencyMs)
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(driver, operation string) {
	globalManager.storeErrors.WithLabelValues(driver, operation).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue Metrics Functions.

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
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

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
