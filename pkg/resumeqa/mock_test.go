package resumeqa

import (
	"context"
	"testing"

	domans "github.com/kailas-cloud/resumeqa/internal/domain/answer"
	dombatch "github.com/kailas-cloud/resumeqa/internal/domain/batch"
	"github.com/kailas-cloud/resumeqa/internal/domain/category"
	"github.com/kailas-cloud/resumeqa/internal/domain/resume"
	domret "github.com/kailas-cloud/resumeqa/internal/domain/retrieval"
	"github.com/kailas-cloud/resumeqa/internal/domain/trace"
	domusage "github.com/kailas-cloud/resumeqa/internal/domain/usage"
	healthuc "github.com/kailas-cloud/resumeqa/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/resumeqa/internal/usecase/ingest"
)

// --- retrieverUseCase mock ---

type mockRetriever struct {
	retrieveFn func(ctx context.Context, query string, topK int) (domret.Result, error)
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, topK int) (domret.Result, error) {
	return m.retrieveFn(ctx, query, topK)
}

// --- answerUseCase mock ---

type mockAnswerer struct {
	answerFn func(ctx context.Context, query string, res domret.Result) (domans.Result, error)
	calls    int
}

func (m *mockAnswerer) Answer(ctx context.Context, query string, res domret.Result) (domans.Result, error) {
	m.calls++
	return m.answerFn(ctx, query, res)
}

// --- ingestUseCase mock ---

type mockIngester struct {
	runFn func(ctx context.Context, opts ingestuc.Options, progress ingestuc.Progress) (dombatch.Report, error)
}

func (m *mockIngester) Run(
	ctx context.Context, opts ingestuc.Options, progress ingestuc.Progress,
) (dombatch.Report, error) {
	return m.runFn(ctx, opts, progress)
}

// --- indexManager mock ---

type mockIndexer struct {
	ensureFn func(ctx context.Context, name string, dim int) error
}

func (m *mockIndexer) EnsureIndex(ctx context.Context, name string, dim int) error {
	return m.ensureFn(ctx, name, dim)
}

// --- healthUseCase mock ---

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// --- usageUseCase mock ---

type mockUsage struct {
	report     domusage.Report
	lastPeriod domusage.Period
}

func (m *mockUsage) Report(_ context.Context, period domusage.Period) domusage.Report {
	m.lastPeriod = period
	return m.report
}

// --- helpers ---

func testClient() *Client {
	return &Client{
		index:      "resumes-index",
		dimensions: 1536,
		batchSize:  100,
	}
}

func financeResult(t *testing.T, ids ...string) domret.Result {
	t.Helper()
	tr := trace.New("trace-1")
	tr.Append(trace.NewClassification("OpenAI Chat Completions",
		trace.ClassificationDetail{Model: "gpt-4o-mini", Category: "FINANCE"}, 0))
	tr.Append(trace.NewEmbedding("OpenAI Embeddings",
		trace.EmbeddingDetail{Model: "text-embedding-3-small", Dimension: 1536}, 0))

	docs := make([]resume.Document, 0, len(ids))
	for i, id := range ids {
		docs = append(docs, resume.Reconstruct(id, category.Finance, "resume "+id, 0.9-float64(i)*0.1))
	}
	res, err := domret.NewResult(category.Finance, docs, tr)
	if err != nil {
		t.Fatalf("NewResult: %v", err)
	}
	return res
}
