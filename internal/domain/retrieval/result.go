// Package retrieval holds the outcome of the retrieval pipeline.
package retrieval

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/resumeqa/internal/domain/category"
	"github.com/kailas-cloud/resumeqa/internal/domain/resume"
	"github.com/kailas-cloud/resumeqa/internal/domain/trace"
)

// Result is the classified category, the ranked documents and the trace
// that produced them. Immutable after construction.
type Result struct {
	category category.Category
	docs     []resume.Document
	trace    *trace.Trace
}

// NewResult creates a retrieval result. Every document must carry the
// result category.
func NewResult(cat category.Category, docs []resume.Document, tr *trace.Trace) (Result, error) {
	for _, d := range docs {
		if d.Category() != cat {
			return Result{}, fmt.Errorf("document %s has category %s, want %s", d.ID(), d.Category(), cat)
		}
	}
	if tr == nil {
		tr = trace.New("")
	}
	return Result{
		category: cat,
		docs:     append([]resume.Document(nil), docs...),
		trace:    tr,
	}, nil
}

// Category returns the classified category.
func (r Result) Category() category.Category { return r.category }

// Docs returns a copy of the ranked documents.
func (r Result) Docs() []resume.Document {
	return append([]resume.Document(nil), r.docs...)
}

// Len returns the number of documents.
func (r Result) Len() int { return len(r.docs) }

// Trace returns the query trace.
func (r Result) Trace() *trace.Trace { return r.trace }

type resultJSON struct {
	Category category.Category `json:"category"`
	Docs     []resume.Document `json:"docs"`
	Trace    *trace.Trace      `json:"trace"`
}

// MarshalJSON renders the result as {"category", "docs", "trace"}.
func (r Result) MarshalJSON() ([]byte, error) {
	docs := r.docs
	if docs == nil {
		docs = []resume.Document{}
	}
	tr := r.trace
	if tr == nil {
		tr = trace.New("")
	}
	return json.Marshal(resultJSON{Category: r.category, Docs: docs, Trace: tr})
}
