package retrieval

import (
	"context"

	"github.com/kailas-cloud/resumeqa/internal/domain"
	"github.com/kailas-cloud/resumeqa/internal/domain/category"
	"github.com/kailas-cloud/resumeqa/internal/domain/search/result"
	"github.com/kailas-cloud/resumeqa/internal/domain/vector"
)

// Classifier maps a query to one category.
type Classifier interface {
	Classify(ctx context.Context, query string) (category.Category, error)
	Model() string
	Tool() string
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Index runs the filtered nearest-neighbour query.
type Index interface {
	Query(ctx context.Context, q vector.Query) ([]result.Match, error)
	Tool() string
	Metric() string
}
