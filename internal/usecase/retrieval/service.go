// Package retrieval classifies a query, runs the category-filtered vector
// search and assembles the ranked documents with their trace.
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kailas-cloud/resumeqa/internal/domain"
	"github.com/kailas-cloud/resumeqa/internal/domain/category"
	"github.com/kailas-cloud/resumeqa/internal/domain/resume"
	domret "github.com/kailas-cloud/resumeqa/internal/domain/retrieval"
	"github.com/kailas-cloud/resumeqa/internal/domain/search/filter"
	"github.com/kailas-cloud/resumeqa/internal/domain/search/result"
	"github.com/kailas-cloud/resumeqa/internal/domain/trace"
	"github.com/kailas-cloud/resumeqa/internal/domain/vector"
	"github.com/kailas-cloud/resumeqa/internal/logger"
	"github.com/kailas-cloud/resumeqa/internal/metrics"
)

// Defaults for top_k handling.
const (
	DefaultTopK = 5
	MaxTopK     = 50
)

const tracerName = "resumeqa/retrieval"

// Config describes the index and embedding model recorded in traces.
type Config struct {
	Index          string
	EmbeddingModel string
	EmbeddingTool  string
	Dimensions     int
	DefaultTopK    int
	MaxTopK        int
	CallTimeout    time.Duration
}

// Service runs the retrieval pipeline. Safe for concurrent use: every call
// owns its trace.
type Service struct {
	classifier Classifier
	embedder   Embedder
	index      Index
	cfg        Config
	newTraceID func() string
}

// New creates a retrieval service. Zero config values fall back to defaults.
func New(classifier Classifier, embedder Embedder, index Index, cfg Config) *Service {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = DefaultTopK
	}
	if cfg.MaxTopK <= 0 {
		cfg.MaxTopK = MaxTopK
	}
	if cfg.DefaultTopK > cfg.MaxTopK {
		cfg.DefaultTopK = cfg.MaxTopK
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = domain.DefaultCallTimeout
	}
	return &Service{
		classifier: classifier,
		embedder:   embedder,
		index:      index,
		cfg:        cfg,
		newTraceID: uuid.NewString,
	}
}

// TopK returns the effective top_k for a requested value.
func (s *Service) TopK(requested int) int {
	if requested <= 0 {
		return s.cfg.DefaultTopK
	}
	if requested > s.cfg.MaxTopK {
		return s.cfg.MaxTopK
	}
	return requested
}

// Retrieve classifies the query, embeds it and returns the topK closest
// resumes of that category. Stages run strictly in order; the first failure
// aborts with its own error kind.
func (s *Service) Retrieve(ctx context.Context, query string, topK int) (domret.Result, error) {
	if strings.TrimSpace(query) == "" {
		return domret.Result{}, fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery)
	}
	topK = s.TopK(topK)
	tr := trace.New(s.newTraceID())
	ctx, log := logger.With(ctx, zap.String("trace_id", tr.ID()))

	cat, err := s.classify(ctx, query, tr)
	if err != nil {
		log.Error("Classification failed", zap.Error(err))
		return domret.Result{}, err
	}

	vec, err := s.embed(ctx, query, tr)
	if err != nil {
		log.Error("Query embedding failed", zap.Error(err))
		return domret.Result{}, err
	}

	matches, err := s.search(ctx, cat, vec, topK, tr)
	if err != nil {
		log.Error("Vector search failed", zap.Error(err))
		return domret.Result{}, err
	}

	docs := toDocuments(ctx, cat, matches, topK)
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID()
	}
	tr.Append(trace.NewResults(s.index.Tool(), trace.ResultsDetail{Count: len(docs), IDs: ids}, 0))

	log.Debug("Retrieval completed",
		zap.String("category", cat.String()),
		zap.Int("docs", len(docs)),
		zap.Int("top_k", topK),
	)
	return domret.NewResult(cat, docs, tr) //nolint:wrapcheck // docs are filtered to cat above
}

func (s *Service) classify(ctx context.Context, query string, tr *trace.Trace) (category.Category, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "retrieval.classify")
	defer span.End()

	start := time.Now()
	var cat category.Category
	err := domain.CallWithTimeout(ctx, s.cfg.CallTimeout, "classification", func(ctx context.Context) error {
		var cerr error
		cat, cerr = s.classifier.Classify(ctx, query)
		return cerr
	})
	metrics.ObserveStage(metrics.StageClassify, start, err)
	if err != nil {
		endWithError(span, err)
		return "", fmt.Errorf("classify query: %w", err)
	}
	span.SetAttributes(attribute.String("category", cat.String()))

	tr.Append(trace.NewClassification(s.classifier.Tool(), trace.ClassificationDetail{
		Model:    s.classifier.Model(),
		Category: cat.String(),
	}, time.Since(start)))
	return cat, nil
}

func (s *Service) embed(ctx context.Context, query string, tr *trace.Trace) ([]float32, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "retrieval.embed")
	defer span.End()

	start := time.Now()
	var res domain.EmbeddingResult
	err := domain.CallWithTimeout(ctx, s.cfg.CallTimeout, "query embedding", func(ctx context.Context) error {
		var eerr error
		res, eerr = s.embedder.Embed(ctx, query)
		return eerr
	})
	metrics.ObserveStage(metrics.StageEmbed, start, err)
	if err != nil {
		endWithError(span, err)
		return nil, fmt.Errorf("embed query: %w", err)
	}
	domain.TokenMeterFrom(ctx).Record(res.TotalTokens)

	dim := s.cfg.Dimensions
	if dim == 0 {
		dim = len(res.Embedding)
	}
	tr.Append(trace.NewEmbedding(s.cfg.EmbeddingTool, trace.EmbeddingDetail{
		Model:     s.cfg.EmbeddingModel,
		Dimension: dim,
	}, time.Since(start)))
	return res.Embedding, nil
}

func (s *Service) search(
	ctx context.Context, cat category.Category, vec []float32, topK int, tr *trace.Trace,
) ([]result.Match, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "retrieval.search")
	defer span.End()
	span.SetAttributes(
		attribute.String("index", s.cfg.Index),
		attribute.Int("top_k", topK),
	)

	f, err := filter.ByCategory(cat)
	if err != nil {
		endWithError(span, err)
		return nil, fmt.Errorf("%w: %w", domain.ErrClassification, err)
	}

	start := time.Now()
	var matches []result.Match
	err = domain.CallWithTimeout(ctx, s.cfg.CallTimeout, "vector search", func(ctx context.Context) error {
		var qerr error
		matches, qerr = s.index.Query(ctx, vector.Query{
			Index:  s.cfg.Index,
			Vector: vec,
			TopK:   topK,
			Filter: f,
		})
		return qerr
	})
	metrics.ObserveStage(metrics.StageSearch, start, err)
	if err != nil {
		endWithError(span, err)
		return nil, fmt.Errorf("search index %s: %w", s.cfg.Index, err)
	}

	tr.Append(trace.NewVectorSearch(s.index.Tool(), trace.VectorSearchDetail{
		Index:  s.cfg.Index,
		Metric: s.index.Metric(),
		TopK:   topK,
		Filter: f.Map(),
	}, time.Since(start)))
	return matches, nil
}

// toDocuments ranks matches and keeps at most topK documents of category cat.
func toDocuments(ctx context.Context, cat category.Category, matches []result.Match, topK int) []resume.Document {
	result.SortByScore(matches)

	docs := make([]resume.Document, 0, min(len(matches), topK))
	for i := range matches {
		m := &matches[i]
		meta := m.Metadata()
		if meta.Category != string(cat) {
			logger.FromContext(ctx).Warn("Dropping match outside the query category",
				zap.String("id", m.ID()),
				zap.String("category", meta.Category),
				zap.String("want", cat.String()),
			)
			continue
		}
		docs = append(docs, resume.Reconstruct(m.ID(), cat, meta.Text, m.Score()))
		if len(docs) == topK {
			break
		}
	}
	return docs
}

func endWithError(span oteltrace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
