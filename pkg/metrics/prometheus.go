// Package metrics provides Prometheus metrics for the flyerhub service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the flyerhub service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Marketplace metrics
	flyersRanked          prometheus.Counter
	rankingLatency        prometheus.Histogram
	flyersCreated         prometheus.Counter
	catalogSize           prometheus.Gauge
	duplicateSubmissions  prometheus.Counter
	redemptionCodesIssued prometheus.Counter
	redemptionCodesReused prometheus.Counter
	redemptionsCompleted  prometheus.Counter
	reviewsCreated        prometheus.Counter
	reviewsUpdated        prometheus.Counter
	helpfulVotes          prometheus.Counter
	postings              *prometheus.CounterVec
	paymentRequired       prometheus.Counter
	quotaResets           prometheus.Counter

	// Snapshot persistence
	snapshotSaves   *prometheus.CounterVec
	snapshotErrors  *prometheus.CounterVec
	snapshotLatency *prometheus.HistogramVec
	flushRuns       prometheus.Counter

	// Save queue and workers
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueUtilization        prometheus.Gauge
	queueEnqueueRate        prometheus.Counter
	queueDequeueRate        prometheus.Counter
	queueEnqueueErrors      prometheus.Counter
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure rebuilds the global manager on a fresh registry. Call it once at
// startup, before anything records a metric or serves GetRegistry.
func Configure(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(customRegistry))...)
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "flyerhub",
		subsystem:        "marketplace",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics on the configured registry.
func (m *Manager) initializeMetrics() {
	m.flyersRanked = m.counter("flyers_ranked_total", "Total number of flyers returned by ranking queries")
	m.rankingLatency = m.histogram("ranking_latency_milliseconds", "Ranking query latency in milliseconds")
	m.flyersCreated = m.counter("flyers_created_total", "Total number of flyers created by users")
	m.catalogSize = m.gauge("catalog_size", "Number of flyers in the catalog")
	m.duplicateSubmissions = m.counter("duplicate_submissions_total", "Flyer submissions recognised as retries")
	m.redemptionCodesIssued = m.counter("redemption_codes_issued_total", "Redemption codes minted")
	m.redemptionCodesReused = m.counter("redemption_codes_reused_total", "Code requests answered with an existing code")
	m.redemptionsCompleted = m.counter("redemptions_completed_total", "Codes marked redeemed")
	m.reviewsCreated = m.counter("reviews_created_total", "New reviews")
	m.reviewsUpdated = m.counter("reviews_updated_total", "Reviews replaced by the same user")
	m.helpfulVotes = m.counter("helpful_votes_total", "Helpful votes on reviews")
	m.postings = m.counterVec("postings_total", "Flyer postings by pricing tier", "tier")
	m.paymentRequired = m.counter("payment_required_total", "Postings refused until the charge is accepted")
	m.quotaResets = m.counter("quota_resets_total", "Monthly posting counters reset on rollover")

	m.snapshotSaves = m.counterVec("snapshot_saves_total", "Snapshots written to the repository", "store")
	m.snapshotErrors = m.counterVec("snapshot_errors_total", "Snapshot encode or write failures", "store")
	m.snapshotLatency = m.histogramVec("snapshot_save_latency_milliseconds", "Snapshot save latency in milliseconds", "store")
	m.flushRuns = m.counter("flush_runs_total", "Scheduled full flushes")

	m.queueSize = m.gauge("queue_size", "Current number of pending save jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of pending save jobs")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Pending save jobs over capacity")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Save jobs enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Save jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Save jobs rejected by the queue")
	m.workerCount = m.gauge("worker_count", "Configured save workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Save workers currently flushing")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Save job latency in milliseconds")
	m.workerErrorRate = m.counter("worker_errors_total", "Save jobs that failed")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type",
		"endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordFlyersRanked adds n ranked flyers and the query latency.
func RecordFlyersRanked(n int, latency time.Duration) {
	globalManager.flyersRanked.Add(float64(n))
	globalManager.rankingLatency.Observe(ms(latency))
}

// RecordFlyerCreated increments the created flyers counter.
func RecordFlyerCreated() {
	globalManager.flyersCreated.Inc()
}

// UpdateCatalogSize sets the number of flyers in the catalog.
func UpdateCatalogSize(n int) {
	globalManager.catalogSize.Set(float64(n))
}

// RecordDuplicateSubmission increments the duplicate submissions counter.
func RecordDuplicateSubmission() {
	globalManager.duplicateSubmissions.Inc()
}

// RecordRedemptionCode counts a code request; created tells minted from reused.
func RecordRedemptionCode(created bool) {
	if created {
		globalManager.redemptionCodesIssued.Inc()
		return
	}
	globalManager.redemptionCodesReused.Inc()
}

// RecordRedemption increments the completed redemptions counter.
func RecordRedemption() {
	globalManager.redemptionsCompleted.Inc()
}

// RecordReview counts a review submission; created tells new from updated.
func RecordReview(created bool) {
	if created {
		globalManager.reviewsCreated.Inc()
		return
	}
	globalManager.reviewsUpdated.Inc()
}

// RecordHelpfulVote increments the helpful votes counter.
func RecordHelpfulVote() {
	globalManager.helpfulVotes.Inc()
}

// RecordPosting counts a charged posting under its tier.
func RecordPosting(tier string) {
	globalManager.postings.WithLabelValues(tier).Inc()
}

// RecordPaymentRequired increments the refused postings counter.
func RecordPaymentRequired() {
	globalManager.paymentRequired.Inc()
}

// RecordQuotaReset increments the quota rollover counter.
func RecordQuotaReset() {
	globalManager.quotaResets.Inc()
}

// RecordSnapshotSave counts a successful save of store and its latency.
func RecordSnapshotSave(store string, latency time.Duration) {
	globalManager.snapshotSaves.WithLabelValues(store).Inc()
	globalManager.snapshotLatency.WithLabelValues(store).Observe(ms(latency))
}

// RecordSnapshotError counts a failed save of store.
func RecordSnapshotError(store string) {
	globalManager.snapshotErrors.WithLabelValues(store).Inc()
}

// RecordFlushRun increments the scheduled flush counter.
func RecordFlushRun() {
	globalManager.flushRuns.Inc()
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

// UpdateWorkerActiveCount sets the number of active workers.
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

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Metrics Functions.

// UpdateSystemMemoryUsage sets the heap memory in use in bytes.
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

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
