// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "resumeqa"

var registerOnce sync.Once

// Register adds every collector to the default registry. The CLI commands,
// the HTTP server and each embedded client call it, only the first call registers.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,

			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingBudgetTokensRemaining,
			EmbeddingCacheTotal,

			ChatRequestsTotal,
			ChatRequestDuration,
			ChatTokensTotal,

			StageDuration,
			IngestBatchesTotal,
			IngestRecordsTotal,
		)
	})
}
