package resumeqa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Values of the status label on resumeqa_client_calls_total.
const (
	statusOK             = "ok"
	statusTimeout        = "timeout"
	statusBudget         = "budget"
	statusClassification = "classification"
	statusEmbedding      = "embedding"
	statusVectorStore    = "vector_store"
	statusSynthesis      = "synthesis"
	statusConfiguration  = "configuration"
	statusInvalidQuery   = "invalid_query"
	statusCanceled       = "canceled"
	statusOther          = "other"
)

// errorKinds is checked in order. Timeouts and budget rejections wrap the
// stage error they interrupted, so they come first.
var errorKinds = []struct {
	err    error
	status string
}{
	{ErrTimeout, statusTimeout},
	{ErrBudgetExceeded, statusBudget},
	{ErrClassification, statusClassification},
	{ErrEmbedding, statusEmbedding},
	{ErrVectorStore, statusVectorStore},
	{ErrSynthesis, statusSynthesis},
	{ErrConfiguration, statusConfiguration},
	{ErrInvalidQuery, statusInvalidQuery},
	{context.Canceled, statusCanceled},
}

// callStatus maps err onto the pipeline error taxonomy.
func callStatus(err error) string {
	if err == nil {
		return statusOK
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status
		}
	}
	return statusOther
}

// clientMetrics are the resumeqa_client_* series.
type clientMetrics struct {
	calls     *prometheus.CounterVec   // operation, status
	latency   *prometheus.HistogramVec // operation
	questions *prometheus.CounterVec   // category
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	m := &clientMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resumeqa",
			Subsystem: "client",
			Name:      "calls_total",
			Help:      "Client calls by operation and outcome (ok or the failing error kind).",
		}, []string{"operation", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "resumeqa",
			Subsystem: "client",
			Name:      "call_duration_seconds",
			Help:      "Client call latency in seconds.",
			// ask chains classification, embedding, search and synthesis
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		}, []string{"operation"}),
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resumeqa",
			Subsystem: "client",
			Name:      "questions_total",
			Help:      "Questions answered or retrieved by the classified job category.",
		}, []string{"category"}),
	}
	if err := register(reg, &m.calls); err != nil {
		return nil, err
	}
	if err := register(reg, &m.latency); err != nil {
		return nil, err
	}
	if err := register(reg, &m.questions); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg. A second Client on the same registry gets the
// collector the first one registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c *C) error {
	err := reg.Register(*c)
	var dup prometheus.AlreadyRegisteredError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &dup):
		existing, ok := dup.ExistingCollector.(C)
		if !ok {
			return fmt.Errorf("resumeqa: %w: collector registered with type %T",
				ErrConfiguration, dup.ExistingCollector)
		}
		*c = existing
		return nil
	default:
		return fmt.Errorf("resumeqa: register metrics: %w", err)
	}
}

// observer logs and counts every Client call. A nil observer, logger or
// metrics set is skipped.
type observer struct {
	logger  *slog.Logger
	metrics *clientMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg == nil {
		return o, nil
	}
	m, err := newClientMetrics(reg)
	if err != nil {
		return nil, err
	}
	o.metrics = m
	return o, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	took := time.Since(start)
	status := callStatus(err)

	if o.metrics != nil {
		o.metrics.calls.WithLabelValues(op, status).Inc()
		o.metrics.latency.WithLabelValues(op).Observe(took.Seconds())
	}
	if o.logger == nil {
		return
	}
	if err != nil {
		o.logger.LogAttrs(context.Background(), slog.LevelWarn, "resumeqa call failed",
			slog.String("op", op),
			slog.String("kind", status),
			slog.Duration("took", took),
			slog.Any("error", err),
		)
		return
	}
	o.logger.LogAttrs(context.Background(), slog.LevelDebug, "resumeqa call done",
		slog.String("op", op),
		slog.Duration("took", took),
	)
}

// classified counts a question under the category the classifier chose.
func (o *observer) classified(category string) {
	if o == nil || o.metrics == nil || category == "" {
		return
	}
	o.metrics.questions.WithLabelValues(category).Inc()
}
