package resumeqa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/resumeqa/internal/app"
	domans "github.com/kailas-cloud/resumeqa/internal/domain/answer"
	dombatch "github.com/kailas-cloud/resumeqa/internal/domain/batch"
	"github.com/kailas-cloud/resumeqa/internal/domain/category"
	domret "github.com/kailas-cloud/resumeqa/internal/domain/retrieval"
	healthuc "github.com/kailas-cloud/resumeqa/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/resumeqa/internal/usecase/ingest"
)

// Внутренние интерфейсы для подмены в тестах.
type retrieverUseCase interface {
	Retrieve(ctx context.Context, query string, topK int) (domret.Result, error)
}

type answerUseCase interface {
	Answer(ctx context.Context, query string, res domret.Result) (domans.Result, error)
}

type ingestUseCase interface {
	Run(ctx context.Context, opts ingestuc.Options, progress ingestuc.Progress) (dombatch.Report, error)
}

type indexManager interface {
	EnsureIndex(ctx context.Context, name string, dim int) error
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the resumeqa SDK entry point. Safe for concurrent use except
// Ingest, which must not run twice at once against the same index.
type Client struct {
	closer    func()
	retriever retrieverUseCase
	answerer  answerUseCase
	ingester  ingestUseCase
	indexer   indexManager
	healthSvc healthUseCase
	usageSvc  usageUseCase
	obs       *observer

	index      string
	dimensions int
	batchSize  int
}

// New creates a Client and connects to the vector store.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.apiKey == "" {
		return nil, fmt.Errorf("resumeqa: %w: OpenAI API key required (use WithOpenAI)", ErrConfiguration)
	}
	if cfg.driver == "" {
		return nil, fmt.Errorf("resumeqa: %w: vector store required (use WithRedis or WithQdrant)", ErrConfiguration)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	svcCfg := cfg.toConfig()
	a, err := app.New(ctx, svcCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("resumeqa: %w", err)
	}
	retriever, err := a.Retrieval()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("resumeqa: %w", err)
	}

	return &Client{
		closer:     a.Close,
		retriever:  retriever,
		answerer:   a.Answer(),
		ingester:   a.Ingest(),
		indexer:    a.Index(),
		healthSvc:  a.Health(),
		usageSvc:   a.Usage(),
		obs:        obs,
		index:      svcCfg.VectorStore.Index,
		dimensions: svcCfg.Embedding.Dimensions,
		batchSize:  svcCfg.Ingest.BatchSize,
	}, nil
}

// Close releases all connections.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
		c.closer = nil
	}
}

// EnsureIndex creates the index if it is missing and waits until it is
// ready. Calling it again is a no-op.
func (c *Client) EnsureIndex(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ensure_index", start, err) }()

	if err = c.indexer.EnsureIndex(ctx, c.index, c.dimensions); err != nil {
		return fmt.Errorf("ensure index %s: %w", c.index, err)
	}
	return nil
}

// Retrieve classifies question and returns up to topK resumes of that
// category. topK <= 0 uses the default of 5.
func (c *Client) Retrieve(ctx context.Context, question string, topK int) (_ Retrieval, err error) {
	start := time.Now()
	defer func() { c.obs.observe("retrieve", start, err) }()

	res, err := c.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		return Retrieval{}, fmt.Errorf("retrieve: %w", err)
	}
	c.obs.classified(string(res.Category()))
	return toRetrieval(res), nil
}

// Ask retrieves resumes for question and synthesizes an answer citing them
// as [ID: <id>]. An empty retrieval still yields an answer.
func (c *Client) Ask(ctx context.Context, question string, topK int) (_ Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ask", start, err) }()

	res, err := c.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieve: %w", err)
	}
	c.obs.classified(string(res.Category()))
	ans, err := c.answerer.Answer(ctx, question, res)
	if err != nil {
		return Answer{}, fmt.Errorf("answer: %w", err)
	}
	return toAnswer(res, ans), nil
}

// Ingest embeds every row of source (a CSV/Parquet path or glob) and
// upserts it into the index. Row ids are row_0, row_1, ... unless the
// source has an id column.
func (c *Client) Ingest(ctx context.Context, source string, opts IngestOptions) (_ IngestReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", start, err) }()

	if source == "" {
		return IngestReport{}, errors.New("resumeqa: source is required")
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = c.batchSize
	}

	report, err := c.ingester.Run(ctx, ingestuc.Options{
		Source:     source,
		Index:      c.index,
		BatchSize:  batch,
		Dimensions: c.dimensions,
		Pipeline:   opts.Pipeline,
		DryRun:     opts.DryRun,
	}, &batchProgress{fn: opts.OnBatch})
	if err != nil {
		return toIngestReport(report), fmt.Errorf("ingest %s: %w", source, err)
	}
	return toIngestReport(report), nil
}

// Health checks the vector store, the provider and the cache if enabled.
func (c *Client) Health(ctx context.Context) HealthStatus {
	return toHealthStatus(c.healthSvc.Check(ctx))
}

// Categories lists the job categories the classifier can return.
func Categories() []string {
	return category.Strings()
}
