package retrieval

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kailas-cloud/resumeqa/internal/domain"
	"github.com/kailas-cloud/resumeqa/internal/domain/category"
	"github.com/kailas-cloud/resumeqa/internal/domain/search/result"
	"github.com/kailas-cloud/resumeqa/internal/domain/trace"
	"github.com/kailas-cloud/resumeqa/internal/domain/vector"
)

func TestRetrieve_InformationTechnologyScenario(t *testing.T) {
	f := newFixture(category.InformationTechnology,
		match("1", 0.71, category.InformationTechnology),
		match("2", 0.93, category.InformationTechnology),
		match("3", 0.85, category.InformationTechnology),
	)

	res, err := f.svc.Retrieve(context.Background(), "Find me Python developers with AWS", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Category() != category.InformationTechnology {
		t.Errorf("category = %s", res.Category())
	}
	if got := f.index.last.Filter.Map()["category"]; got != "INFORMATION-TECHNOLOGY" {
		t.Errorf("filter category = %q", got)
	}
	if f.index.last.Index != "resumes-index" || f.index.last.TopK != 5 {
		t.Errorf("query = %+v", f.index.last)
	}

	docs := res.Docs()
	wantIDs := []string{"2", "3", "1"}
	if len(docs) != len(wantIDs) {
		t.Fatalf("expected %d docs, got %d", len(wantIDs), len(docs))
	}
	for i, id := range wantIDs {
		if docs[i].ID() != id {
			t.Errorf("docs[%d] = %s, want %s", i, docs[i].ID(), id)
		}
		if docs[i].Category() != category.InformationTechnology {
			t.Errorf("docs[%d] category = %s", i, docs[i].Category())
		}
	}
	if docs[0].Text() != "resume 2" || docs[0].Score() != 0.93 {
		t.Errorf("docs[0] = %+v", docs[0])
	}
}

func TestRetrieve_StepsInOrder(t *testing.T) {
	f := newFixture(category.Finance, match("16852973", 0.9, category.Finance))

	res, err := f.svc.Retrieve(context.Background(), "budget analyst", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fmt.Sprint(*f.log) != "[classify embed query]" {
		t.Errorf("call order = %v", *f.log)
	}

	tr := res.Trace()
	if tr.ID() != "trace-1" {
		t.Errorf("trace id = %q", tr.ID())
	}
	steps := tr.Steps()
	wantKinds := []trace.Kind{trace.KindClassification, trace.KindEmbedding, trace.KindVectorSearch, trace.KindResults}
	if len(steps) != len(wantKinds) {
		t.Fatalf("expected %d steps, got %d", len(wantKinds), len(steps))
	}
	for i, k := range wantKinds {
		if steps[i].Kind() != k {
			t.Errorf("step %d kind = %s, want %s", i, steps[i].Kind(), k)
		}
	}

	c, _ := steps[0].Classification()
	if c.Category != "FINANCE" || c.Model != "gpt-4o-mini" || steps[0].Tool() != "OpenAI Chat Completions" {
		t.Errorf("classification step = %+v tool=%s", c, steps[0].Tool())
	}
	e, _ := steps[1].Embedding()
	if e.Model != "text-embedding-3-small" || e.Dimension != 1536 {
		t.Errorf("embedding step = %+v", e)
	}
	v, _ := steps[2].VectorSearch()
	if v.Index != "resumes-index" || v.Metric != "cosine" || v.TopK != 3 || v.Filter["category"] != "FINANCE" {
		t.Errorf("vector search step = %+v", v)
	}
	r, _ := steps[3].Results()
	if r.Count != 1 || len(r.IDs) != 1 || r.IDs[0] != "16852973" {
		t.Errorf("results step = %+v", r)
	}
}

func TestRetrieve_ZeroMatches(t *testing.T) {
	f := newFixture(category.Aviation)

	res, err := f.svc.Retrieve(context.Background(), "pilots with 747 type rating", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Len() != 0 {
		t.Errorf("expected no docs, got %d", res.Len())
	}
	r, _ := res.Trace().Steps()[3].Results()
	if r.Count != 0 {
		t.Errorf("results count = %d", r.Count)
	}
}

func TestRetrieve_RecordsEmbeddingTokens(t *testing.T) {
	f := newFixture(category.HR, match("a", 0.9, category.HR))

	ctx, meter := domain.WithTokenMeter(context.Background())
	if _, err := f.svc.Retrieve(ctx, "recruiters", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens, embedded := meter.Total(); !embedded || tokens != 4 {
		t.Errorf("meter = %d, %v; want 4 tokens", tokens, embedded)
	}
}

func TestRetrieve_DropsOtherCategories(t *testing.T) {
	f := newFixture(category.HR,
		match("a", 0.9, category.HR),
		match("b", 0.8, category.Sales),
		match("c", 0.7, category.HR),
	)

	res, err := f.svc.Retrieve(context.Background(), "recruiters", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, d := range res.Docs() {
		if d.Category() != category.HR {
			t.Errorf("doc %s has category %s", d.ID(), d.Category())
		}
	}
	if res.Len() != 2 {
		t.Errorf("expected 2 docs, got %d", res.Len())
	}
}

func TestRetrieve_CapsAtTopK(t *testing.T) {
	var ms []result.Match
	for i := range 8 {
		ms = append(ms, match(fmt.Sprint(i), float64(i)/10, category.Chef))
	}
	f := newFixture(category.Chef, ms...)

	res, err := f.svc.Retrieve(context.Background(), "pastry chefs", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Len() != 3 {
		t.Fatalf("expected 3 docs, got %d", res.Len())
	}
	if res.Docs()[0].ID() != "7" {
		t.Errorf("best doc = %s", res.Docs()[0].ID())
	}
}

func TestTopK(t *testing.T) {
	f := newFixture(category.HR)
	tests := []struct {
		in, want int
	}{
		{0, DefaultTopK},
		{-1, DefaultTopK},
		{7, 7},
		{MaxTopK + 1, MaxTopK},
	}
	for _, tt := range tests {
		if got := f.svc.TopK(tt.in); got != tt.want {
			t.Errorf("TopK(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	f := newFixture(category.HR)

	for _, q := range []string{"", "   \n\t"} {
		_, err := f.svc.Retrieve(context.Background(), q, 5)
		if !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("query %q: expected ErrInvalidQuery, got %v", q, err)
		}
	}
	if len(*f.log) != 0 {
		t.Errorf("no collaborator should be called, got %v", *f.log)
	}
}

func TestRetrieve_StageErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture)
		wantErr error
		calls   string
	}{
		{
			name: "classification",
			setup: func(f *fixture) {
				f.classifier.classifyFn = func(context.Context, string) (category.Category, error) {
					return "", fmt.Errorf("%w: not in enum", domain.ErrClassification)
				}
			},
			wantErr: domain.ErrClassification,
			calls:   "[classify]",
		},
		{
			name: "embedding",
			setup: func(f *fixture) {
				f.embedder.embedFn = func(context.Context, string) (domain.EmbeddingResult, error) {
					return domain.EmbeddingResult{}, fmt.Errorf("%w: 500", domain.ErrEmbedding)
				}
			},
			wantErr: domain.ErrEmbedding,
			calls:   "[classify embed]",
		},
		{
			name: "vector store",
			setup: func(f *fixture) {
				f.index.queryFn = func(context.Context, vector.Query) ([]result.Match, error) {
					return nil, fmt.Errorf("%w: connection refused", domain.ErrVectorStore)
				}
			},
			wantErr: domain.ErrVectorStore,
			calls:   "[classify embed query]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(category.HR)
			tt.setup(f)

			_, err := f.svc.Retrieve(context.Background(), "hr managers", 5)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if fmt.Sprint(*f.log) != tt.calls {
				t.Errorf("calls = %v, want %s", *f.log, tt.calls)
			}
		})
	}
}

func TestRetrieve_Timeout(t *testing.T) {
	f := newFixture(category.HR)
	f.svc.cfg.CallTimeout = 5 * time.Millisecond
	f.classifier.classifyFn = func(ctx context.Context, _ string) (category.Category, error) {
		<-ctx.Done()
		return "", fmt.Errorf("%w: %w", domain.ErrClassification, ctx.Err())
	}

	_, err := f.svc.Retrieve(context.Background(), "hr managers", 5)
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if errors.Is(err, domain.ErrClassification) {
		t.Error("timeout must be reported as its own kind")
	}
}
