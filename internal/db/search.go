package db

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kailas-cloud/resumeqa/internal/domain/search/filter"
)

// VectorBlob packs v as little-endian FLOAT32, the layout vector fields are
// stored in and KNN queries are parameterized with.
func VectorBlob(v []float32) string {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return string(buf)
}

// DefaultVectorField is the hash field the KNN clause searches when
// KNNQuery.VectorField is empty.
const DefaultVectorField = "vector"

// KNNQuery asks for the K nearest neighbours of Vector, optionally
// pre-filtered by tag conditions.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// Validate reports a malformed query as ErrBadQuery.
func (q *KNNQuery) Validate() error {
	switch {
	case q.IndexName == "":
		return fmt.Errorf("%w: index name is required", ErrBadQuery)
	case len(q.Vector) == 0:
		return fmt.Errorf("%w: vector is required", ErrBadQuery)
	case q.K <= 0:
		return fmt.Errorf("%w: k must be positive, got %d", ErrBadQuery, q.K)
	}
	return nil
}

// Field returns the vector field name, defaulting to DefaultVectorField.
func (q *KNNQuery) Field() string {
	if q.VectorField == "" {
		return DefaultVectorField
	}
	return q.VectorField
}

// SearchResult holds hits nearest first. Total is what the engine reported
// and may exceed len(Entries) when some replies could not be parsed.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is one hit. Score is cosine similarity in [-1,1], higher is closer.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
