// Package metrics exposes transcription counters and latencies to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apperrors "scribe/internal/app/errors"
)

// Transcription sources.
const (
	SourceRecording = "recording"
	SourceUpload    = "upload"
)

// Metrics records one observation per transcription attempt.
type Metrics struct {
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	audioBytes *prometheus.HistogramVec
	recordings prometheus.Gauge
}

// New registers the collectors on reg. A nil reg records into collectors nobody scrapes.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scribe",
			Name:      "transcriptions_total",
			Help:      "Transcription attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scribe",
			Name:      "transcription_duration_seconds",
			Help:      "Time spent waiting for the transcription backend.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"source"}),
		audioBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scribe",
			Name:      "audio_bytes",
			Help:      "Size of the raw audio sent for transcription.",
			Buckets:   prometheus.ExponentialBuckets(16<<10, 4, 8),
		}, []string{"source"}),
		recordings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scribe",
			Name:      "recording_active",
			Help:      "1 while the microphone is held.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.latency, m.audioBytes, m.recordings)
	}
	return m
}

// RecordSuccess records a successful transcription
func (m *Metrics) RecordSuccess(source string, latency time.Duration, audioBytes int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(source, "success").Inc()
	m.latency.WithLabelValues(source).Observe(latency.Seconds())
	m.audioBytes.WithLabelValues(source).Observe(float64(audioBytes))
}

// RecordFailure records a failed attempt, labelled with the error class.
func (m *Metrics) RecordFailure(source string, err error) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(source, Outcome(err)).Inc()
}

// SetRecording flips the active-recording gauge.
func (m *Metrics) SetRecording(active bool) {
	if m == nil {
		return
	}
	if active {
		m.recordings.Set(1)
	} else {
		m.recordings.Set(0)
	}
}

// Outcome maps an error to a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case apperrors.Is(err, apperrors.ErrNoTranscription):
		return "no_transcription"
	case apperrors.Is(err, apperrors.ErrTranscriptionFailed):
		return "transcription_failed"
	case apperrors.Is(err, apperrors.ErrFileReadFailed):
		return "file_read_failed"
	case apperrors.Is(err, apperrors.ErrDeviceUnavailable):
		return "device_unavailable"
	default:
		return "error"
	}
}
