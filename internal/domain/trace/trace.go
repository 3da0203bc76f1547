// Package trace records the ordered steps a query went through.
package trace

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies which payload a Step carries.
type Kind string

// Step kinds.
const (
	KindClassification Kind = "classification"
	KindEmbedding      Kind = "embedding"
	KindVectorSearch   Kind = "vector_search"
	KindResults        Kind = "results"
	KindSynthesis      Kind = "synthesis"
)

// Step names shown to users.
const (
	NameClassification = "Category classification"
	NameEmbedding      = "Query embedding"
	NameVectorSearch   = "Vector search"
	NameResults        = "Fetch top 5"
	NameSynthesis      = "LLM answer generation"
)

// ClassificationDetail describes the category classification call.
type ClassificationDetail struct {
	Model    string `json:"model"`
	Category string `json:"category"`
}

// EmbeddingDetail describes the query embedding call.
type EmbeddingDetail struct {
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
}

// VectorSearchDetail describes the filtered nearest-neighbour query.
type VectorSearchDetail struct {
	Index  string            `json:"index"`
	Metric string            `json:"metric"`
	TopK   int               `json:"top_k"`
	Filter map[string]string `json:"filter"`
}

// ResultsDetail summarizes the documents handed to the caller.
type ResultsDetail struct {
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
}

// SynthesisDetail describes the answer generation call.
type SynthesisDetail struct {
	Model     string `json:"model"`
	InputDocs int    `json:"input_docs"`
}

// Step is a tagged variant: exactly one detail pointer is set, matching Kind.
// Steps are built only through the New* constructors.
type Step struct {
	kind     Kind
	name     string
	tool     string
	duration time.Duration

	classification *ClassificationDetail
	embedding      *EmbeddingDetail
	vectorSearch   *VectorSearchDetail
	results        *ResultsDetail
	synthesis      *SynthesisDetail
}

// NewClassification creates a classification step.
func NewClassification(tool string, d ClassificationDetail, took time.Duration) Step {
	return Step{kind: KindClassification, name: NameClassification, tool: tool, duration: took, classification: &d}
}

// NewEmbedding creates an embedding step.
func NewEmbedding(tool string, d EmbeddingDetail, took time.Duration) Step {
	return Step{kind: KindEmbedding, name: NameEmbedding, tool: tool, duration: took, embedding: &d}
}

// NewVectorSearch creates a vector search step. The filter map is copied.
func NewVectorSearch(tool string, d VectorSearchDetail, took time.Duration) Step {
	d.Filter = copyMap(d.Filter)
	return Step{kind: KindVectorSearch, name: NameVectorSearch, tool: tool, duration: took, vectorSearch: &d}
}

// NewResults creates a results summary step. The id slice is copied.
func NewResults(tool string, d ResultsDetail, took time.Duration) Step {
	d.IDs = append([]string(nil), d.IDs...)
	return Step{kind: KindResults, name: NameResults, tool: tool, duration: took, results: &d}
}

// NewSynthesis creates an answer generation step.
func NewSynthesis(tool string, d SynthesisDetail, took time.Duration) Step {
	return Step{kind: KindSynthesis, name: NameSynthesis, tool: tool, duration: took, synthesis: &d}
}

// Kind returns the step variant.
func (s Step) Kind() Kind { return s.kind }

// Name returns the human-readable step name.
func (s Step) Name() string { return s.name }

// Tool returns the collaborator that served the step.
func (s Step) Tool() string { return s.tool }

// Duration returns the wall time of the step.
func (s Step) Duration() time.Duration { return s.duration }

// Classification returns the payload of a classification step.
func (s Step) Classification() (ClassificationDetail, bool) {
	if s.classification == nil {
		return ClassificationDetail{}, false
	}
	return *s.classification, true
}

// Embedding returns the payload of an embedding step.
func (s Step) Embedding() (EmbeddingDetail, bool) {
	if s.embedding == nil {
		return EmbeddingDetail{}, false
	}
	return *s.embedding, true
}

// VectorSearch returns the payload of a vector search step.
func (s Step) VectorSearch() (VectorSearchDetail, bool) {
	if s.vectorSearch == nil {
		return VectorSearchDetail{}, false
	}
	d := *s.vectorSearch
	d.Filter = copyMap(d.Filter)
	return d, true
}

// Results returns the payload of a results step.
func (s Step) Results() (ResultsDetail, bool) {
	if s.results == nil {
		return ResultsDetail{}, false
	}
	d := *s.results
	d.IDs = append([]string(nil), d.IDs...)
	return d, true
}

// Synthesis returns the payload of a synthesis step.
func (s Step) Synthesis() (SynthesisDetail, bool) {
	if s.synthesis == nil {
		return SynthesisDetail{}, false
	}
	return *s.synthesis, true
}

// Detail returns the payload as an untyped value, for rendering.
func (s Step) Detail() any {
	switch s.kind {
	case KindClassification:
		return *s.classification
	case KindEmbedding:
		return *s.embedding
	case KindVectorSearch:
		return *s.vectorSearch
	case KindResults:
		return *s.results
	case KindSynthesis:
		return *s.synthesis
	default:
		return nil
	}
}

type stepJSON struct {
	Kind       Kind            `json:"kind"`
	Name       string          `json:"step"`
	Tool       string          `json:"tool"`
	DurationMS int64           `json:"duration_ms"`
	Details    json.RawMessage `json:"details"`
}

// MarshalJSON renders the step with its payload under "details".
func (s Step) MarshalJSON() ([]byte, error) {
	details, err := json.Marshal(s.Detail())
	if err != nil {
		return nil, fmt.Errorf("marshal %s details: %w", s.kind, err)
	}
	return json.Marshal(stepJSON{
		Kind:       s.kind,
		Name:       s.name,
		Tool:       s.tool,
		DurationMS: s.duration.Milliseconds(),
		Details:    details,
	})
}

// UnmarshalJSON decodes a step, picking the payload type from "kind".
func (s *Step) UnmarshalJSON(b []byte) error {
	var raw stepJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("unmarshal step: %w", err)
	}
	took := time.Duration(raw.DurationMS) * time.Millisecond

	var step Step
	switch raw.Kind {
	case KindClassification:
		var d ClassificationDetail
		if err := json.Unmarshal(raw.Details, &d); err != nil {
			return fmt.Errorf("unmarshal %s details: %w", raw.Kind, err)
		}
		step = NewClassification(raw.Tool, d, took)
	case KindEmbedding:
		var d EmbeddingDetail
		if err := json.Unmarshal(raw.Details, &d); err != nil {
			return fmt.Errorf("unmarshal %s details: %w", raw.Kind, err)
		}
		step = NewEmbedding(raw.Tool, d, took)
	case KindVectorSearch:
		var d VectorSearchDetail
		if err := json.Unmarshal(raw.Details, &d); err != nil {
			return fmt.Errorf("unmarshal %s details: %w", raw.Kind, err)
		}
		step = NewVectorSearch(raw.Tool, d, took)
	case KindResults:
		var d ResultsDetail
		if err := json.Unmarshal(raw.Details, &d); err != nil {
			return fmt.Errorf("unmarshal %s details: %w", raw.Kind, err)
		}
		step = NewResults(raw.Tool, d, took)
	case KindSynthesis:
		var d SynthesisDetail
		if err := json.Unmarshal(raw.Details, &d); err != nil {
			return fmt.Errorf("unmarshal %s details: %w", raw.Kind, err)
		}
		step = NewSynthesis(raw.Tool, d, took)
	default:
		return fmt.Errorf("unknown step kind %q", raw.Kind)
	}
	if raw.Name != "" {
		step.name = raw.Name
	}
	*s = step
	return nil
}

// Trace is the append-only ordered record of one query.
// Not safe for concurrent use; a query owns its trace.
type Trace struct {
	id    string
	steps []Step
}

// New creates an empty trace with the given id.
func New(id string) *Trace {
	return &Trace{id: id}
}

// ID returns the trace identifier.
func (t *Trace) ID() string { return t.id }

// Append records the next step.
func (t *Trace) Append(s Step) {
	t.steps = append(t.steps, s)
}

// Steps returns a copy of the recorded steps in order.
func (t *Trace) Steps() []Step {
	return append([]Step(nil), t.steps...)
}

// Len returns the number of recorded steps.
func (t *Trace) Len() int { return len(t.steps) }

type traceJSON struct {
	ID    string `json:"id"`
	Steps []Step `json:"steps"`
}

// MarshalJSON renders the trace as {"id", "steps"}.
func (t *Trace) MarshalJSON() ([]byte, error) {
	steps := t.steps
	if steps == nil {
		steps = []Step{}
	}
	return json.Marshal(traceJSON{ID: t.id, Steps: steps})
}

// UnmarshalJSON decodes a trace produced by MarshalJSON.
func (t *Trace) UnmarshalJSON(b []byte) error {
	var raw traceJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("unmarshal trace: %w", err)
	}
	t.id = raw.ID
	t.steps = raw.Steps
	return nil
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
