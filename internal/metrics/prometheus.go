package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the sound editor service
type Metrics struct {
	// Import metrics
	ImportsStarted  prometheus.Counter
	ImportsFinished prometheus.Counter
	ImportsFailed   prometheus.Counter
	DecodeErrors    prometheus.Counter

	// Transcode metrics
	Transcodes        prometheus.Counter
	TranscodeFailures prometheus.Counter
	TranscodeDuration prometheus.Histogram
	TranscodeSlices   prometheus.Histogram
	EncodedBytes      prometheus.Histogram

	// Recording metrics
	RecordingsStarted   prometheus.Counter
	RecordingsCompleted prometheus.Counter
	RecordingsDiscarded prometheus.Counter
	RecordingActive     prometheus.Gauge
	RecordingDuration   prometheus.Histogram

	// Asset metrics
	AssetsTotal prometheus.Gauge

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Import metrics
		ImportsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sound_imports_started_total",
			Help: "Total number of sound imports started",
		}),
		ImportsFinished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sound_imports_finished_total",
			Help: "Total number of sound imports finished successfully",
		}),
		ImportsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sound_imports_failed_total",
			Help: "Total number of sound imports that failed",
		}),
		DecodeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sound_decode_errors_total",
			Help: "Total number of audio decode failures",
		}),

		// Transcode metrics
		Transcodes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sound_transcodes_total",
			Help: "Total number of completed transcodes",
		}),
		TranscodeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sound_transcode_failures_total",
			Help: "Total number of failed transcodes",
		}),
		TranscodeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sound_transcode_duration_seconds",
			Help:    "Wall-clock duration of transcodes",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}),
		TranscodeSlices: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sound_transcode_slices",
			Help:    "Number of cooperative work slices per transcode",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1 to 512
		}),
		EncodedBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sound_encoded_bytes",
			Help:    "Size of encoded MP3 payloads in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 12), // 1KB to ~4MB
		}),

		// Recording metrics
		RecordingsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sound_recordings_started_total",
			Help: "Total number of recording sessions started",
		}),
		RecordingsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sound_recordings_completed_total",
			Help: "Total number of recording takes persisted",
		}),
		RecordingsDiscarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sound_recordings_discarded_total",
			Help: "Total number of recording takes discarded as stale",
		}),
		RecordingActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sound_recording_active",
			Help: "Whether a recording session is currently capturing (0 or 1)",
		}),
		RecordingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sound_recording_duration_seconds",
			Help:    "Duration of recording takes",
			Buckets: prometheus.LinearBuckets(1, 1, 10), // 1s to 10s ceiling
		}),

		// Asset metrics
		AssetsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sound_assets_total",
			Help: "Current number of sound assets in the store",
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sound_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sound_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sound_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordImportStarted increments the imports started counter
func (m *Metrics) RecordImportStarted() {
	m.ImportsStarted.Inc()
}

// RecordImportFinished increments the imports finished counter
func (m *Metrics) RecordImportFinished() {
	m.ImportsFinished.Inc()
}

// RecordImportFailed increments the imports failed counter
func (m *Metrics) RecordImportFailed() {
	m.ImportsFailed.Inc()
}

// RecordDecodeError increments the decode errors counter
func (m *Metrics) RecordDecodeError() {
	m.DecodeErrors.Inc()
}

// RecordTranscode records a completed transcode
func (m *Metrics) RecordTranscode(durationSeconds float64, slices, encodedBytes int) {
	m.Transcodes.Inc()
	m.TranscodeDuration.Observe(durationSeconds)
	m.TranscodeSlices.Observe(float64(slices))
	m.EncodedBytes.Observe(float64(encodedBytes))
}

// RecordTranscodeFailure increments the transcode failures counter
func (m *Metrics) RecordTranscodeFailure() {
	m.TranscodeFailures.Inc()
}

// RecordRecordingStarted marks a recording session as active
func (m *Metrics) RecordRecordingStarted() {
	m.RecordingsStarted.Inc()
	m.RecordingActive.Set(1)
}

// RecordRecordingCompleted records a persisted take
func (m *Metrics) RecordRecordingCompleted(durationSeconds float64) {
	m.RecordingsCompleted.Inc()
	m.RecordingDuration.Observe(durationSeconds)
	m.RecordingActive.Set(0)
}

// RecordRecordingDiscarded records a take thrown away as stale
func (m *Metrics) RecordRecordingDiscarded() {
	m.RecordingsDiscarded.Inc()
	m.RecordingActive.Set(0)
}

// SetAssetCount sets the current number of stored assets
func (m *Metrics) SetAssetCount(count int) {
	m.AssetsTotal.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
