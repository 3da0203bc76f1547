// Package app is the composition root: it builds every client once from
// config and hands out the services that use them.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/resumeqa/internal/config"
	dbRedis "github.com/kailas-cloud/resumeqa/internal/db/redis"
	"github.com/kailas-cloud/resumeqa/internal/domain"
	"github.com/kailas-cloud/resumeqa/internal/domain/search/result"
	"github.com/kailas-cloud/resumeqa/internal/domain/vector"
	"github.com/kailas-cloud/resumeqa/internal/metrics"
	budgetrepo "github.com/kailas-cloud/resumeqa/internal/repository/budget"
	"github.com/kailas-cloud/resumeqa/internal/repository/embcache"
	qdrantrepo "github.com/kailas-cloud/resumeqa/internal/repository/qdrant"
	"github.com/kailas-cloud/resumeqa/internal/repository/resumeindex"
	"github.com/kailas-cloud/resumeqa/internal/source"
	openaiTransport "github.com/kailas-cloud/resumeqa/internal/transport/openai"
	answeruc "github.com/kailas-cloud/resumeqa/internal/usecase/answer"
	embeddinguc "github.com/kailas-cloud/resumeqa/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/resumeqa/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/resumeqa/internal/usecase/ingest"
	retrievaluc "github.com/kailas-cloud/resumeqa/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/resumeqa/internal/usecase/usage"
)

const (
	providerName      = "openai"
	storeReadyTimeout = 10 * time.Second
	budgetDailyTTL    = 48 * time.Hour
	budgetMonthlyTTL  = 62 * 24 * time.Hour
)

// VectorIndex is what every entry point needs from a vector store backend.
type VectorIndex interface {
	EnsureIndex(ctx context.Context, name string, dim int) error
	DropIndex(ctx context.Context, name string) error
	Upsert(ctx context.Context, name string, records []vector.Record) error
	Query(ctx context.Context, q vector.Query) ([]result.Match, error)
	Ping(ctx context.Context) error
	Tool() string
	Metric() string
}

// App holds the clients shared by the CLI commands and the SDK. Every client
// is built once here and injected into the services.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	store    *dbRedis.Store // nil unless redis backs the index, cache or budget
	index    VectorIndex
	provider *openaiTransport.Embedder
	embedder *embeddinguc.InstrumentedEmbedder
	budget   *embeddinguc.BudgetTracker // nil without a token budget
	openai   *openaiTransport.Config
	closers  []func()
}

// New connects the configured backends. The caller owns the returned App
// and must Close it.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()
	metrics.Register()

	a := &App{cfg: cfg, logger: logger}

	if NeedsRedis(cfg) {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: create redis store: %w", domain.ErrVectorStore, err)
		}
		a.closers = append(a.closers, store.Close)
		if err := store.WaitForReady(ctx, storeReadyTimeout); err != nil {
			a.Close()
			return nil, fmt.Errorf("%w: redis not ready: %w", domain.ErrVectorStore, err)
		}
		a.store = store
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Database.Addrs))
	}

	if err := a.buildIndex(); err != nil {
		a.Close()
		return nil, err
	}
	a.buildEmbedder(ctx)

	logger.Info("Clients created",
		zap.String("vector_store", a.index.Tool()),
		zap.String("index", cfg.VectorStore.Index),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("embedding_cache", cfg.Embedding.Cache.Enabled),
	)
	return a, nil
}

// NeedsRedis reports whether cfg requires a redis connection: the redis
// vector store, the embedding cache or a persisted token budget.
func NeedsRedis(cfg config.Config) bool {
	if cfg.VectorStore.Driver == config.DriverRedis || cfg.Embedding.Cache.Enabled {
		return true
	}
	return len(cfg.Database.Addrs) > 0 && hasBudget(cfg)
}

func hasBudget(cfg config.Config) bool {
	return cfg.Embedding.Budget.DailyTokens > 0 || cfg.Embedding.Budget.MonthlyTokens > 0
}

func (a *App) buildIndex() error {
	attempts, interval := a.cfg.VectorStore.ReadinessAttempts, a.cfg.ReadinessInterval()

	switch a.cfg.VectorStore.Driver {
	case config.DriverQdrant:
		repo, err := qdrantrepo.New(a.cfg.Qdrant.Addr)
		if err != nil {
			return err //nolint:wrapcheck // already a configuration error
		}
		a.closers = append(a.closers, func() { _ = repo.Close() })
		a.index = repo.WithReadiness(qdrantrepo.Readiness{Attempts: attempts, Interval: interval})
	default:
		a.index = resumeindex.New(a.store).
			WithIndexParams(resumeindex.IndexParams{
				Algorithm:   a.cfg.VectorStore.Algorithm,
				M:           a.cfg.VectorStore.HNSWM,
				EFConstruct: a.cfg.VectorStore.HNSWEFConstruct,
			}).
			WithReadiness(resumeindex.Readiness{Attempts: attempts, Interval: interval})
	}
	return nil
}

// buildEmbedder assembles provider → cache → instrumented wrapper.
func (a *App) buildEmbedder(ctx context.Context) {
	a.openai = &openaiTransport.Config{
		APIKey:     a.cfg.OpenAI.APIKey,
		BaseURL:    a.cfg.OpenAI.BaseURL,
		Provider:   providerName,
		HTTPClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Logger:     a.logger,
	}
	a.provider = openaiTransport.NewEmbedder(a.openai, a.cfg.Embedding.Model, a.cfg.Embedding.Dimensions)

	var inner domain.Embedder = a.provider
	if a.cfg.Embedding.Cache.Enabled {
		inner = embcache.New(a.provider, a.store, a.cfg.Embedding.Model, a.cfg.CacheTTL(),
			metrics.EmbeddingCacheTotal, a.logger)
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var budgetChecker embeddinguc.BudgetChecker
	if hasBudget(a.cfg) {
		action := embeddinguc.BudgetActionWarn
		if a.cfg.Embedding.Budget.Action == string(embeddinguc.BudgetActionReject) {
			action = embeddinguc.BudgetActionReject
		}
		budget := embeddinguc.NewBudgetTracker(providerName,
			a.cfg.Embedding.Budget.DailyTokens, a.cfg.Embedding.Budget.MonthlyTokens, action, a.logger)
		if a.store != nil {
			budget.WithStore(ctx, budgetrepo.New(a.store, budgetDailyTTL, budgetMonthlyTTL))
		}
		budgetChecker = budget
		a.budget = budget
	}

	a.embedder = embeddinguc.NewInstrumentedEmbedder(inner, providerName, a.cfg.Embedding.Model, budgetChecker, a.logger).
		WithMaxBatch(a.cfg.Embedding.MaxBatch).
		WithCallTimeout(a.cfg.CallTimeout())
}

// Retrieval builds the classify → embed → search pipeline.
func (a *App) Retrieval() (*retrievaluc.Service, error) {
	classifier, err := openaiTransport.NewClassifier(a.openai, a.cfg.Classifier.Model, a.cfg.Classifier.Temperature)
	if err != nil {
		return nil, err //nolint:wrapcheck // configuration error
	}
	return retrievaluc.New(classifier, a.embedder, a.index, retrievaluc.Config{
		Index:          a.cfg.VectorStore.Index,
		EmbeddingModel: a.cfg.Embedding.Model,
		EmbeddingTool:  openaiTransport.ToolEmbeddings,
		Dimensions:     a.cfg.Embedding.Dimensions,
		DefaultTopK:    a.cfg.Retrieval.DefaultTopK,
		MaxTopK:        a.cfg.Retrieval.MaxTopK,
		CallTimeout:    a.cfg.CallTimeout(),
	}), nil
}

// Answer builds the synthesis service.
func (a *App) Answer() *answeruc.Service {
	synth := openaiTransport.NewSynthesizer(a.openai, a.cfg.Synthesis.Model, *a.cfg.Synthesis.Temperature)
	return answeruc.New(synth).
		WithMaxContextDocs(a.cfg.Synthesis.MaxContextDocs).
		WithCallTimeout(a.cfg.CallTimeout())
}

// Health builds the readiness checker.
func (a *App) Health() *healthuc.Service {
	svc := healthuc.New(a.index).WithProvider(a.provider)
	if a.cfg.Embedding.Cache.Enabled && a.store != nil {
		svc = svc.WithCache(a.store)
	}
	return svc
}

// Ingest builds an ingestion service reading CSV/Parquet sources. Checkpoint
// and limiter are left to the caller.
func (a *App) Ingest() *ingestuc.Service {
	load := func(ctx context.Context, pattern string) ([]source.Record, source.Stats, error) {
		return source.Load(ctx, pattern, a.logger)
	}
	return ingestuc.New(load, a.embedder, a.index, a.logger)
}

// Usage builds the token usage reporter over the budget tracker.
func (a *App) Usage() *usageuc.Service {
	if a.budget == nil {
		return usageuc.New(nil)
	}
	return usageuc.New(a.budget)
}

// Index returns the vector store gateway.
func (a *App) Index() VectorIndex { return a.index }

// Config returns the configuration the App was built with.
func (a *App) Config() config.Config { return a.cfg }

// Close releases clients in reverse creation order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
