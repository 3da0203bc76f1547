// Package vector holds the records exchanged with the vector store gateway.
package vector

import (
	"fmt"

	"github.com/kailas-cloud/resumeqa/internal/domain/resume"
	"github.com/kailas-cloud/resumeqa/internal/domain/search/filter"
)

// Metadata keys attached to every indexed vector.
const (
	FieldCategory = "category"
	FieldText     = "text"
	FieldRowID    = "row_id"
)

// Metadata is the payload stored next to each vector.
type Metadata struct {
	Category string
	Text     string
	RowID    string
}

// Record is one vector to upsert. Upserting an existing ID replaces it.
type Record struct {
	ID       string
	Values   []float32
	Metadata Metadata
}

// NewRecord pairs an ingested resume with its embedding.
func NewRecord(doc resume.Document, rowID string, values []float32) (Record, error) {
	if len(values) == 0 {
		return Record{}, fmt.Errorf("record %s: empty vector", doc.ID())
	}
	return Record{
		ID:     doc.ID(),
		Values: values,
		Metadata: Metadata{
			Category: string(doc.Category()),
			Text:     doc.Text(),
			RowID:    rowID,
		},
	}, nil
}

// Query is a filtered nearest-neighbour request.
type Query struct {
	Index  string
	Vector []float32
	TopK   int
	Filter filter.Expression
}

// Validate checks the query invariants shared by all backends.
func (q *Query) Validate() error {
	if q.Index == "" {
		return fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return fmt.Errorf("query vector is required")
	}
	if q.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", q.TopK)
	}
	return nil
}
