package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "jan"
	subsystem = "image_api"
)

// Image-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"method", "endpoint"},
	)

	// Generation workflow outcomes (success, blocked, failed)
	WorkflowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workflows_total",
			Help:      "Total generation workflows by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	// Per-stage latency: refine, synthesize, persist
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stage_duration_seconds",
			Help:      "Generation stage duration in seconds",
			Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage", "status"},
	)

	// Guardrail verdicts
	GuardrailBlocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "guardrail_blocks_total",
			Help:      "Prompts rejected by the safety guardrail",
		},
		[]string{"category"},
	)

	// Upload counters
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "uploads_total",
			Help:      "Total file uploads",
		},
		[]string{"collection", "status"},
	)

	// Upload bytes counter
	UploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "upload_bytes_total",
			Help:      "Total bytes uploaded",
		},
		[]string{"collection"},
	)

	// Object storage operations counter
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "storage_operations_total",
			Help:      "Total object storage operations",
		},
		[]string{"backend", "operation", "status"},
	)

	// Object storage operation duration
	StorageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "storage_duration_seconds",
			Help:      "Object storage operation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"backend", "operation"},
	)

	// Session cache lookups
	SessionCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "session_cache_total",
			Help:      "Session cache lookups by result",
		},
		[]string{"result"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordWorkflow records the terminal outcome of one generation request.
func RecordWorkflow(category, outcome string) {
	WorkflowsTotal.WithLabelValues(category, outcome).Inc()
}

// RecordStage records how long a workflow stage took.
func RecordStage(stage, status string, durationSec float64) {
	StageDuration.WithLabelValues(stage, status).Observe(durationSec)
}

// RecordGuardrailBlock counts a prompt rejected for the given violation category.
func RecordGuardrailBlock(category string) {
	GuardrailBlocksTotal.WithLabelValues(category).Inc()
}

// RecordUpload records a file upload
func RecordUpload(collection, status string, bytes int64) {
	UploadsTotal.WithLabelValues(collection, status).Inc()
	if status == "success" {
		UploadBytesTotal.WithLabelValues(collection).Add(float64(bytes))
	}
}

// RecordStorageOperation records an object storage call
func RecordStorageOperation(backend, operation, status string, durationSec float64) {
	StorageOperationsTotal.WithLabelValues(backend, operation, status).Inc()
	StorageDuration.WithLabelValues(backend, operation).Observe(durationSec)
}

// RecordSessionCache records a cache lookup outcome: hit, miss, error or stale.
func RecordSessionCache(result string) {
	SessionCacheTotal.WithLabelValues(result).Inc()
}
