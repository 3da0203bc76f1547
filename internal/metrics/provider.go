package metrics

import "github.com/prometheus/client_golang/prometheus"

// OpenAI round-trips take from tens of milliseconds (embeddings) to tens of
// seconds (synthesis over five resumes).
var providerBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Embeddings: labelled by provider and model, so a model switch starts new series.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "requests_total",
		Help:      "Embedding provider calls by status",
	}, []string{"provider", "model", "status"})

	EmbeddingRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "request_duration_seconds",
		Help:      "Embedding provider call latency",
		Buckets:   providerBuckets,
	}, []string{"provider", "model"})

	EmbeddingTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "tokens_total",
		Help:      "Tokens billed for embeddings",
	}, []string{"provider", "model", "type"})

	EmbeddingErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "errors_total",
		Help:      "Embedding failures by kind",
	}, []string{"provider", "model", "error_type"})

	// period: daily / monthly; -1 when the period has no limit.
	EmbeddingBudgetTokensRemaining = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "budget_tokens_remaining",
		Help:      "Tokens left in the current budget period",
	}, []string{"provider", "period"})

	EmbeddingCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "cache_total",
		Help:      "Embedding cache lookups by result",
	}, []string{"result"}) // hit / miss
)

// Chat completions: role is classifier or synthesizer.
var (
	ChatRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chat",
		Name:      "requests_total",
		Help:      "Chat completion calls by status",
	}, []string{"role", "model", "status"})

	ChatRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "chat",
		Name:      "request_duration_seconds",
		Help:      "Chat completion call latency",
		Buckets:   providerBuckets,
	}, []string{"role", "model"})

	ChatTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chat",
		Name:      "tokens_total",
		Help:      "Tokens billed for chat completions",
	}, []string{"role", "model", "type"})
)
