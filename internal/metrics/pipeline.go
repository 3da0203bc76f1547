package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline stages.
const (
	StageClassify  = "classify"
	StageEmbed     = "embed"
	StageSearch    = "search"
	StageSynthesis = "synthesis"
	StageUpsert    = "upsert"
)

var (
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of retrieval, answer and ingest stages",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage", "outcome"},
	)

	IngestBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_batches_total",
			Help:      "Ingestion batches by status",
		},
		[]string{"status"}, // ok / skipped / error
	)

	IngestRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_records_total",
			Help:      "Ingested and skipped source records",
		},
		[]string{"result"}, // upserted / skipped
	)
)

// ObserveStage records a stage duration with outcome "ok" or "error".
func ObserveStage(stage string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	StageDuration.WithLabelValues(stage, outcome).Observe(time.Since(start).Seconds())
}
