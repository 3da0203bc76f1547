package resumeqa

import (
	"time"

	domans "github.com/kailas-cloud/resumeqa/internal/domain/answer"
	dombatch "github.com/kailas-cloud/resumeqa/internal/domain/batch"
	domret "github.com/kailas-cloud/resumeqa/internal/domain/retrieval"
	"github.com/kailas-cloud/resumeqa/internal/domain/trace"
	healthuc "github.com/kailas-cloud/resumeqa/internal/usecase/health"
)

// Document is a retrieved resume.
type Document struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

// Step is one stage of the query trace.
type Step struct {
	Kind     string        `json:"kind"` // classification, embedding, vector_search, results, synthesis
	Name     string        `json:"name"`
	Tool     string        `json:"tool"`
	Duration time.Duration `json:"duration"`
	Detail   any           `json:"detail"` // kind-specific struct (model, top_k, filter, ...)
}

// Retrieval is the classified category and the closest resumes of it.
type Retrieval struct {
	TraceID  string     `json:"trace_id"`
	Category string     `json:"category"`
	Docs     []Document `json:"docs"`
	Steps    []Step     `json:"steps"`
}

// Answer is a retrieval plus the synthesized, cited answer. Steps include
// the synthesis step.
type Answer struct {
	Retrieval
	Text string `json:"answer"`
}

// IngestOptions tunes a single Ingest call.
type IngestOptions struct {
	BatchSize int  // 0 = client default
	Pipeline  bool // embed the next batch while the current one is upserted
	DryRun    bool // load and split only

	// OnBatch is called after every committed batch. Optional.
	OnBatch func(done, total int)
}

// IngestReport summarizes an ingestion run.
type IngestReport struct {
	Batches int // batches embedded and upserted
	Records int // records upserted
	Skipped int // source rows dropped (unknown category, empty text)
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}

func toStep(s trace.Step) Step {
	return Step{
		Kind:     string(s.Kind()),
		Name:     s.Name(),
		Tool:     s.Tool(),
		Duration: s.Duration(),
		Detail:   s.Detail(),
	}
}

func toRetrieval(res domret.Result) Retrieval {
	out := Retrieval{
		Category: string(res.Category()),
		Docs:     make([]Document, 0, res.Len()),
		Steps:    []Step{},
	}
	if tr := res.Trace(); tr != nil {
		out.TraceID = tr.ID()
		for _, s := range tr.Steps() {
			out.Steps = append(out.Steps, toStep(s))
		}
	}
	for _, d := range res.Docs() {
		out.Docs = append(out.Docs, Document{
			ID:       d.ID(),
			Category: string(d.Category()),
			Text:     d.Text(),
			Score:    d.Score(),
		})
	}
	return out
}

func toAnswer(res domret.Result, ans domans.Result) Answer {
	r := toRetrieval(res)
	r.Steps = append(r.Steps, toStep(ans.Step))
	return Answer{Retrieval: r, Text: ans.Answer}
}

func toIngestReport(r dombatch.Report) IngestReport {
	return IngestReport{Batches: r.Batches, Records: r.Records, Skipped: r.Skipped}
}

func toHealthStatus(report healthuc.Report) HealthStatus {
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// batchProgress adapts IngestOptions.OnBatch to the ingestion progress hooks.
type batchProgress struct {
	fn          func(done, total int)
	done, total int
}

func (p *batchProgress) Begin(total int) { p.total = total }

func (p *batchProgress) Tick() {
	p.done++
	if p.fn != nil {
		p.fn(p.done, p.total)
	}
}
