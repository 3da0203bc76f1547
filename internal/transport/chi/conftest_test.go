package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	domans "github.com/kailas-cloud/resumeqa/internal/domain/answer"
	"github.com/kailas-cloud/resumeqa/internal/domain/category"
	"github.com/kailas-cloud/resumeqa/internal/domain/resume"
	domret "github.com/kailas-cloud/resumeqa/internal/domain/retrieval"
	"github.com/kailas-cloud/resumeqa/internal/domain/trace"
	domusage "github.com/kailas-cloud/resumeqa/internal/domain/usage"
	healthuc "github.com/kailas-cloud/resumeqa/internal/usecase/health"
)

// --- Retriever mock ---

type mockRetriever struct {
	retrieveFn func(ctx context.Context, query string, topK int) (domret.Result, error)
	lastTopK   int
	calls      int
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, topK int) (domret.Result, error) {
	m.calls++
	m.lastTopK = topK
	if m.retrieveFn != nil {
		return m.retrieveFn(ctx, query, topK)
	}
	return itResult(), nil
}

// --- Answerer mock ---

type mockAnswerer struct {
	answerFn func(ctx context.Context, query string, res domret.Result) (domans.Result, error)
	calls    int
}

func (m *mockAnswerer) Answer(ctx context.Context, query string, res domret.Result) (domans.Result, error) {
	m.calls++
	if m.answerFn != nil {
		return m.answerFn(ctx, query, res)
	}
	return domans.Result{
		Answer: "Strong Python background [ID: 101].",
		Step:   trace.NewSynthesis("OpenAI Chat Completions", trace.SynthesisDetail{Model: "gpt-4o-mini", InputDocs: res.Len()}, 0),
	}, nil
}

// --- HealthChecker mock ---

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

// --- UsageReporter mock ---

type mockUsage struct {
	lastPeriod domusage.Period
}

func (m *mockUsage) Report(_ context.Context, period domusage.Period) domusage.Report {
	m.lastPeriod = period
	start := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	return domusage.NewReport(period, start, start.Add(24*time.Hour), 1200, 1000)
}

func itResult() domret.Result {
	tr := trace.New("trace-1")
	tr.Append(trace.NewClassification("OpenAI Chat Completions",
		trace.ClassificationDetail{Model: "gpt-4o-mini", Category: "INFORMATION-TECHNOLOGY"}, 0))
	tr.Append(trace.NewEmbedding("OpenAI Embeddings",
		trace.EmbeddingDetail{Model: "text-embedding-3-small", Dimension: 1536}, 0))
	tr.Append(trace.NewVectorSearch("redis", trace.VectorSearchDetail{
		Index: "resumes-index", Metric: "cosine", TopK: 5,
		Filter: map[string]string{"category": "INFORMATION-TECHNOLOGY"},
	}, 0))
	tr.Append(trace.NewResults("redis", trace.ResultsDetail{Count: 2, IDs: []string{"101", "102"}}, 0))

	docs := []resume.Document{
		resume.Reconstruct("101", category.InformationTechnology, "Python developer", 0.92),
		resume.Reconstruct("102", category.InformationTechnology, "Go developer", 0.81),
	}
	res, err := domret.NewResult(category.InformationTechnology, docs, tr)
	if err != nil {
		panic(err)
	}
	return res
}

type fixture struct {
	retriever *mockRetriever
	answerer  *mockAnswerer
	health    *mockHealth
	usage     *mockUsage
	handler   http.Handler
}

func newFixture(apiKeys ...string) *fixture {
	f := &fixture{
		retriever: &mockRetriever{},
		answerer:  &mockAnswerer{},
		health:    &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}},
		usage:     &mockUsage{},
	}
	srv := NewServer(f.retriever, f.answerer, f.health, zap.NewNop()).WithUsage(f.usage)
	f.handler = srv.Router(apiKeys)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v (body %q)", err, rr.Body.String())
	}
	return resp
}
