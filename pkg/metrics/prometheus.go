// Package metrics provides Prometheus metrics for the fixture density service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Latency buckets in milliseconds.
var defaultLatencyBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500} //nolint:gochecknoglobals // constant bucket layout

// Manager manages all Prometheus metrics for the density service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Engine
	eventsNormalized     prometheus.Counter
	eventsInvalid        prometheus.Counter
	candidateEvaluations prometheus.Counter
	memoHits             prometheus.Counter
	memoMisses           prometheus.Counter
	sweepLatency         prometheus.Histogram
	sweepsSuperseded     prometheus.Counter
	finalScore           prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerActiveCount prometheus.Gauge
	workerBusyCount   prometheus.Gauge
	workerTaskLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
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
		namespace:        "fixturedensity",
		subsystem:        "engine",
		histogramBuckets: defaultLatencyBuckets,
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
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.eventsNormalized = m.counter("events_normalized_total", "Total number of raw events normalized successfully")
	m.eventsInvalid = m.counter("events_invalid_total", "Total number of raw events skipped as invalid")
	m.candidateEvaluations = m.counter("candidate_evaluations_total", "Total number of candidate evaluations")
	m.memoHits = m.counter("memo_hits_total", "Candidate evaluations served from the memo cache")
	m.memoMisses = m.counter("memo_misses_total", "Candidate evaluations computed afresh")
	m.sweepLatency = m.histogram("sweep_latency_milliseconds", "Duration of a full candidate sweep in milliseconds", m.histogramBuckets)
	m.sweepsSuperseded = m.counter("sweeps_superseded_total", "Sweeps discarded because a newer request arrived")
	m.finalScore = m.histogram("final_score", "Distribution of target final scores", prometheus.LinearBuckets(10, 10, 10))

	m.queueSize = m.gauge("queue_size", "Current number of queued sweep tasks")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued sweep tasks")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Total number of tasks enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Total number of tasks dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues")

	m.workerActiveCount = m.gauge("worker_active_count", "Number of running workers")
	m.workerBusyCount = m.gauge("worker_busy_count", "Number of workers currently executing a task")
	m.workerTaskLatency = m.histogram("worker_task_latency_milliseconds", "Task execution latency in milliseconds", m.histogramBuckets)

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
			Name:      "errors_total",
			Help:      "Errors by component and type",
		},
		[]string{"component", "error_type"},
	)
}

// RecordEventsNormalized adds n successfully normalized events.
func RecordEventsNormalized(n int) {
	globalManager.eventsNormalized.Add(float64(n))
}

// RecordEventsInvalid adds n skipped events.
func RecordEventsInvalid(n int) {
	globalManager.eventsInvalid.Add(float64(n))
}

// RecordCandidateEvaluations adds n candidate evaluations, of which hits came from the memo.
func RecordCandidateEvaluations(n, hits int) {
	globalManager.candidateEvaluations.Add(float64(n))
	globalManager.memoHits.Add(float64(hits))
	globalManager.memoMisses.Add(float64(n - hits))
}

// RecordSweepLatency records the duration of one sweep.
func RecordSweepLatency(latencyMs float64) {
	globalManager.sweepLatency.Observe(latencyMs)
}

// RecordSweepSuperseded counts a discarded sweep.
func RecordSweepSuperseded() {
	globalManager.sweepsSuperseded.Inc()
}

// RecordFinalScore observes a target's final score.
func RecordFinalScore(score int) {
	globalManager.finalScore.Observe(float64(score))
}

// UpdateQueueSize sets the queue size gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization gauge.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue counts an accepted task.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a consumed task.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a rejected task.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// AddWorkerBusy moves the busy-worker gauge by delta.
func AddWorkerBusy(delta int) {
	globalManager.workerBusyCount.Add(float64(delta))
}

// RecordWorkerTaskLatency records how long one task took.
func RecordWorkerTaskLatency(latencyMs float64) {
	globalManager.workerTaskLatency.Observe(latencyMs)
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request latency.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent counts an error raised by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler serves the custom registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}
