package ingest

import (
	"context"

	"github.com/kailas-cloud/resumeqa/internal/domain"
	"github.com/kailas-cloud/resumeqa/internal/domain/vector"
	"github.com/kailas-cloud/resumeqa/internal/source"
)

// Loader reads the source records for a path or glob.
type Loader func(ctx context.Context, pattern string) ([]source.Record, source.Stats, error)

// Embedder vectorizes one batch of texts in a single call.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Index creates the target index and stores vectors.
type Index interface {
	EnsureIndex(ctx context.Context, name string, dim int) error
	Upsert(ctx context.Context, name string, records []vector.Record) error
}

// Checkpoint persists the last committed batch per (source, index) and the
// number of source records committed up to it.
type Checkpoint interface {
	Position(source, index string) (batch, records int, err error)
	Commit(source, index string, batch, records int) error
	Reset(source, index string) error
}

// Limiter throttles outbound embedding calls.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Progress receives the batch total once, then one tick per finished batch.
type Progress interface {
	Begin(total int)
	Tick()
}
