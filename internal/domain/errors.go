package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrClassification signals a malformed or out-of-enumeration classifier response.
	ErrClassification = errors.New("classification failed")
	// ErrEmbedding signals an embedding provider failure.
	ErrEmbedding = errors.New("embedding failed")
	// ErrVectorStore signals an index creation, upsert or query failure.
	ErrVectorStore = errors.New("vector store error")
	// ErrSynthesis signals an answer generation failure.
	ErrSynthesis = errors.New("answer synthesis failed")
	// ErrConfiguration signals missing or inconsistent settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrTimeout signals that an external call exceeded its time bound.
	ErrTimeout = errors.New("external call timed out")
	// ErrInvalidQuery signals a rejected query (empty text, bad top_k).
	ErrInvalidQuery = errors.New("invalid query")
)

// ErrBudgetExceeded signals that the embedding token budget rejected a call.
var ErrBudgetExceeded = fmt.Errorf("token budget exceeded: %w", ErrEmbedding)

// ErrIndexNotReady signals that a freshly created index did not report ready in time.
var ErrIndexNotReady = fmt.Errorf("index not ready: %w", ErrVectorStore)

// DimensionMismatchError is returned when an existing index was built for a different vector size.
type DimensionMismatchError struct {
	Index    string
	Existing int
	Expected int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: index %q has dimension %d, embedding model produces %d",
		ErrConfiguration.Error(), e.Index, e.Existing, e.Expected)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrConfiguration }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(index string, existing, expected int) error {
	return &DimensionMismatchError{Index: index, Existing: existing, Expected: expected}
}
