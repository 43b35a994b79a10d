// Package metrics exposes Prometheus instruments for the relay.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lisan"

// Recognition outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics groups the relay's collectors on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	ActiveConnections prometheus.Gauge
	ChunksReceived    prometheus.Counter
	ChunksDropped     prometheus.Counter
	TranscriptsSent   prometheus.Counter
	Recognitions      *prometheus.CounterVec
	RecognizeDuration prometheus.Histogram
}

// New registers the relay collectors plus Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "WebSocket connections currently registered.",
		}),
		ChunksReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_chunks_received_total",
			Help:      "Binary audio payloads received from clients.",
		}),
		ChunksDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_chunks_dropped_total",
			Help:      "Audio payloads discarded for being below the minimum size.",
		}),
		TranscriptsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_sent_total",
			Help:      "Transcript text frames sent to clients.",
		}),
		Recognitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognitions_total",
			Help:      "Recognizer calls by backend and outcome.",
		}, []string{"backend", "outcome"}),
		RecognizeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recognize_duration_seconds",
			Help:      "Latency of recognizer calls.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}

	m.registry.MustRegister(
		m.ActiveConnections,
		m.ChunksReceived,
		m.ChunksDropped,
		m.TranscriptsSent,
		m.Recognitions,
		m.RecognizeDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRecognition records one recognizer call.
func (m *Metrics) ObserveRecognition(backend string, started time.Time, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.Recognitions.WithLabelValues(backend, outcome).Inc()
	m.RecognizeDuration.Observe(time.Since(started).Seconds())
}

// RegisterQueueDepth exposes the number of recognizer calls waiting for a worker.
func (m *Metrics) RegisterQueueDepth(depth func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "recognizer_queue_depth",
		Help:      "Recognizer calls waiting for a free worker.",
	}, func() float64 {
		return float64(depth())
	}))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
