package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type IngestMetrics struct {
	registry *prometheus.Registry

	batchTotal      *prometheus.CounterVec
	batchDuration   *prometheus.HistogramVec
	batchInFlight   prometheus.Gauge
	filesTotal      *prometheus.CounterVec
	queueLag        *prometheus.HistogramVec
	sessionsCleaned prometheus.Counter
}

func NewIngestMetrics(service string) *IngestMetrics {
	registry := prometheus.NewRegistry()

	batchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbc",
			Subsystem: "ingest",
			Name:      "batch_total",
			Help:      "Total processed ingestion batches by status.",
		},
		[]string{"service", "status"},
	)
	batchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kbc",
			Subsystem: "ingest",
			Name:      "batch_duration_seconds",
			Help:      "Ingestion batch duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	batchInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "kbc",
			Subsystem: "ingest",
			Name:      "batch_in_flight",
			Help:      "Number of ingestion batches currently running.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	filesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbc",
			Subsystem: "ingest",
			Name:      "files_total",
			Help:      "Total files in finished batches by outcome.",
		},
		[]string{"service", "outcome"},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kbc",
			Subsystem: "ingest",
			Name:      "queue_lag_seconds",
			Help:      "Delay between batch submission and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	sessionsCleaned := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kbc",
			Subsystem: "ingest",
			Name:      "sessions_cleaned_total",
			Help:      "Total sessions destroyed by the expiry sweeper.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(batchTotal, batchDuration, batchInFlight, filesTotal, queueLag, sessionsCleaned)

	return &IngestMetrics{
		registry:        registry,
		batchTotal:      batchTotal,
		batchDuration:   batchDuration,
		batchInFlight:   batchInFlight,
		filesTotal:      filesTotal,
		queueLag:        queueLag,
		sessionsCleaned: sessionsCleaned,
	}
}

func (m *IngestMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *IngestMetrics) StartBatch() {
	m.batchInFlight.Inc()
}

func (m *IngestMetrics) FinishBatch(service string, fileCount int, duration time.Duration, err error) {
	m.batchInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.batchTotal.WithLabelValues(service, status).Inc()
	m.batchDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	m.filesTotal.WithLabelValues(service, status).Add(float64(fileCount))
}

func (m *IngestMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *IngestMetrics) AddSessionsCleaned(n int) {
	if n <= 0 {
		return
	}
	m.sessionsCleaned.Add(float64(n))
}
