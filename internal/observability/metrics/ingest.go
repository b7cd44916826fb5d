// Package metrics provides Prometheus metric collectors for the application
// components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics contains Prometheus metrics for the ingestion pipeline
type IngestMetrics struct {
	imagesTotal           *prometheus.CounterVec
	batchesTotal          *prometheus.CounterVec
	batchDuration         prometheus.Histogram
	classificationsTotal  *prometheus.CounterVec
	classificationSeconds prometheus.Histogram
	blobWriteSeconds      prometheus.Histogram
}

// NewIngestMetrics creates and registers new ingestion metrics
func NewIngestMetrics(registry *prometheus.Registry) (*IngestMetrics, error) {
	m := &IngestMetrics{
		imagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_images_total",
				Help: "Total number of images processed by final state",
			},
			[]string{"state"}, // stored, user_labeled, classified, persisted, failed
		),
		batchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_batches_total",
				Help: "Total number of ingestion batches by outcome",
			},
			[]string{"status"}, // success, error
		),
		batchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ingest_batch_duration_seconds",
				Help:    "Time taken to process a full ingestion batch",
				Buckets: prometheus.DefBuckets,
			},
		),
		classificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_classifications_total",
				Help: "Total number of classifier invocations by outcome",
			},
			[]string{"outcome"}, // identified, unidentified, error
		),
		classificationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ingest_classification_duration_seconds",
				Help:    "Time taken by a single classifier invocation",
				Buckets: prometheus.DefBuckets,
			},
		),
		blobWriteSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ingest_blob_write_duration_seconds",
				Help:    "Time taken to durably write one image blob",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	collectors := []prometheus.Collector{
		m.imagesTotal,
		m.batchesTotal,
		m.batchDuration,
		m.classificationsTotal,
		m.classificationSeconds,
		m.blobWriteSeconds,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordImage increments the image counter for the given final state
func (m *IngestMetrics) RecordImage(state string) {
	m.imagesTotal.WithLabelValues(state).Inc()
}

// RecordBatch records the outcome and duration of a batch
func (m *IngestMetrics) RecordBatch(status string, seconds float64) {
	m.batchesTotal.WithLabelValues(status).Inc()
	m.batchDuration.Observe(seconds)
}

// RecordClassification records the outcome and duration of one classifier call
func (m *IngestMetrics) RecordClassification(outcome string, seconds float64) {
	m.classificationsTotal.WithLabelValues(outcome).Inc()
	m.classificationSeconds.Observe(seconds)
}

// RecordBlobWrite records the duration of one durable blob write
func (m *IngestMetrics) RecordBlobWrite(seconds float64) {
	m.blobWriteSeconds.Observe(seconds)
}
