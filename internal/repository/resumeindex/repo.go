package resumeindex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/resumeqa/internal/db"
	"github.com/kailas-cloud/resumeqa/internal/domain"
	"github.com/kailas-cloud/resumeqa/internal/domain/search/result"
	"github.com/kailas-cloud/resumeqa/internal/domain/vector"
	"github.com/kailas-cloud/resumeqa/internal/logger"
)

// store is the consumer interface for the resume vector index (ISP).
type store interface {
	Ping(ctx context.Context) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// IndexParams tunes the vector field. Algorithm is "hnsw" (default) or
// "flat"; flat is exact KNN and fits corpora of a few thousand resumes.
type IndexParams struct {
	Algorithm   string
	M           int
	EFConstruct int
}

// Readiness bounds the post-create polling loop.
type Readiness struct {
	Attempts int
	Interval time.Duration
}

// Repo is the Redis-backed vector store gateway.
type Repo struct {
	store     store
	params    IndexParams
	readiness Readiness
}

// New creates a resume index repository.
func New(s store) *Repo {
	return &Repo{
		store:     s,
		params:    IndexParams{Algorithm: "hnsw", M: 16, EFConstruct: 200},
		readiness: Readiness{Attempts: 30, Interval: 2 * time.Second},
	}
}

// WithIndexParams configures the vector field of newly created indexes.
func (r *Repo) WithIndexParams(p IndexParams) *Repo {
	if p.Algorithm != "" {
		r.params.Algorithm = p.Algorithm
	}
	if p.M > 0 {
		r.params.M = p.M
	}
	if p.EFConstruct > 0 {
		r.params.EFConstruct = p.EFConstruct
	}
	return r
}

// WithReadiness configures how long EnsureIndex waits for a new index.
func (r *Repo) WithReadiness(cfg Readiness) *Repo {
	if cfg.Attempts > 0 {
		r.readiness.Attempts = cfg.Attempts
	}
	if cfg.Interval > 0 {
		r.readiness.Interval = cfg.Interval
	}
	return r
}

// Tool names the backend in query traces.
func (r *Repo) Tool() string { return "redis" }

// Metric names the similarity metric in query traces.
func (r *Repo) Metric() string { return domain.DefaultVectorConfig().DistanceMetric }

// Ping checks connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrVectorStore, err)
	}
	return nil
}

// EnsureIndex creates the cosine index if absent and waits until it is ready.
// An existing index is left untouched unless its dimension differs from dim.
func (r *Repo) EnsureIndex(ctx context.Context, name string, dim int) error {
	if !db.IsValidIdentifier(name) {
		return fmt.Errorf("%w: invalid index name %q", domain.ErrConfiguration, name)
	}
	if dim <= 0 {
		return fmt.Errorf("%w: index dimension must be positive, got %d", domain.ErrConfiguration, dim)
	}

	info, err := r.store.IndexInfo(ctx, indexName(name))
	switch {
	case err == nil:
		return checkDimension(ctx, name, info, dim)
	case !errors.Is(err, db.ErrIndexNotFound):
		return fmt.Errorf("%w: inspect index %s: %w", domain.ErrVectorStore, name, err)
	}

	def, err := buildIndex(name, dim, r.params)
	if err != nil {
		return fmt.Errorf("%w: build index: %w", domain.ErrConfiguration, err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		// Another process won the race; its index is as good as ours.
		if !errors.Is(err, db.ErrIndexExists) {
			return fmt.Errorf("%w: create index %s: %w", domain.ErrVectorStore, name, err)
		}
	}

	logger.FromContext(ctx).Info("vector index created",
		zap.String("index", name), zap.Int("dim", dim))

	return r.waitReady(ctx, name)
}

// DropIndex removes the index together with its resume hashes.
// A missing index is not an error.
func (r *Repo) DropIndex(ctx context.Context, name string) error {
	if !db.IsValidIdentifier(name) {
		return fmt.Errorf("%w: invalid index name %q", domain.ErrConfiguration, name)
	}
	if err := r.store.DropIndex(ctx, indexName(name), true); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil
		}
		return fmt.Errorf("%w: drop index %s: %w", domain.ErrVectorStore, name, err)
	}
	logger.FromContext(ctx).Info("vector index dropped", zap.String("index", name))
	return nil
}

func checkDimension(ctx context.Context, name string, info *db.IndexInfo, dim int) error {
	if info.VectorDim == 0 {
		logger.FromContext(ctx).Warn("could not read vector dimension of existing index",
			zap.String("index", name))
		return nil
	}
	if info.VectorDim != dim {
		return domain.NewDimensionMismatch(name, info.VectorDim, dim)
	}
	return nil
}

func (r *Repo) waitReady(ctx context.Context, name string) error {
	for attempt := 1; attempt <= r.readiness.Attempts; attempt++ {
		info, err := r.store.IndexInfo(ctx, indexName(name))
		if err == nil && info.Ready() {
			return nil
		}
		if err != nil {
			logger.FromContext(ctx).Debug("index readiness probe failed",
				zap.String("index", name), zap.Int("attempt", attempt), zap.Error(err))
		}
		if attempt == r.readiness.Attempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for index %s: %w", name, ctx.Err())
		case <-time.After(r.readiness.Interval):
		}
	}
	return fmt.Errorf("%w: %s after %d attempts", domain.ErrIndexNotReady, name, r.readiness.Attempts)
}

// Upsert writes vectors with their metadata. Re-upserting an id overwrites it.
func (r *Repo) Upsert(ctx context.Context, name string, records []vector.Record) error {
	if len(records) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(records))
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			return fmt.Errorf("%w: record %d has empty id", domain.ErrVectorStore, i)
		}
		if len(rec.Values) == 0 {
			return fmt.Errorf("%w: record %s has empty vector", domain.ErrVectorStore, rec.ID)
		}
		items = append(items, db.HashSetItem{
			Key:    docKey(name, rec.ID),
			Fields: buildHashFields(rec),
		})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("%w: upsert %d vectors into %s: %w", domain.ErrVectorStore, len(items), name, err)
	}
	return nil
}

// Query returns up to q.TopK matches, nearest first.
func (r *Repo) Query(ctx context.Context, q vector.Query) ([]result.Match, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName(q.Index),
		VectorField:  vectorField,
		Filters:      q.Filter,
		Vector:       q.Vector,
		K:            q.TopK,
		ReturnFields: []string{vector.FieldCategory, vector.FieldText, vector.FieldRowID},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", domain.ErrVectorStore, q.Index, err)
	}

	return parseMatches(sr, q.Index, q.TopK), nil
}
