package chi

import (
	"context"

	domans "github.com/kailas-cloud/resumeqa/internal/domain/answer"
	domret "github.com/kailas-cloud/resumeqa/internal/domain/retrieval"
	domusage "github.com/kailas-cloud/resumeqa/internal/domain/usage"
	healthuc "github.com/kailas-cloud/resumeqa/internal/usecase/health"
)

// Retriever runs classification, embedding and filtered search.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) (domret.Result, error)
}

// Answerer synthesizes a cited answer from retrieved documents.
type Answerer interface {
	Answer(ctx context.Context, query string, res domret.Result) (domans.Result, error)
}

// UsageReporter reports embedding token usage against the budget.
type UsageReporter interface {
	Report(ctx context.Context, period domusage.Period) domusage.Report
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
