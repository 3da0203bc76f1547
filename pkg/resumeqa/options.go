package resumeqa

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/resumeqa/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver     string // "redis" or "qdrant"
	addrs      []string
	password   string
	qdrantAddr string

	apiKey  string
	baseURL string

	index          string
	embeddingModel string
	dimensions     int
	chatModel      string
	algorithm      string
	hnswM          int
	hnswEF         int
	batchSize      int
	cacheTTL       time.Duration
	callTimeout    time.Duration
	dailyTokens    int64
	monthlyTokens  int64
	rejectOverrun  bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis stores vectors in a RediSearch index on the given instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithQdrant stores vectors in a Qdrant collection reachable over gRPC.
func WithQdrant(addr string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverQdrant
		c.qdrantAddr = addr
	})
}

// WithOpenAI sets the provider API key. Required.
func WithOpenAI(apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = apiKey
	})
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = url
	})
}

// WithIndex sets the index (or Qdrant collection) name.
// Default: resumes-index.
func WithIndex(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index = name
	})
}

// WithEmbeddingModel sets the embedding model and its vector size.
// Default: text-embedding-3-small, 1536.
func WithEmbeddingModel(model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingModel = model
		c.dimensions = dimensions
	})
}

// WithChatModel sets the model used for both classification and synthesis.
// Default: gpt-4o-mini.
func WithChatModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.chatModel = model
	})
}

// WithHNSW configures HNSW index parameters for the redis backend.
// Defaults: M=16, EFConstruct=200.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEF = efConstruct
	})
}

// WithExactSearch makes the redis backend create a FLAT (brute-force) vector
// index instead of HNSW. Exact results, fine for a few thousand resumes.
func WithExactSearch() Option {
	return optionFunc(func(c *clientConfig) {
		c.algorithm = "flat"
	})
}

// WithBatchSize sets the number of records per ingestion batch.
// Default: 100.
func WithBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchSize = size
	})
}

// WithEmbeddingCache caches embeddings in redis for ttl. With a Qdrant
// backend, addr names the redis instance used for the cache.
func WithEmbeddingCache(addr string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		if len(c.addrs) == 0 {
			c.addrs = []string{addr}
		}
		c.cacheTTL = ttl
	})
}

// WithTokenBudget caps embedding tokens per UTC day and month (0 = no cap).
// With reject, calls over the cap fail with ErrBudgetExceeded; otherwise
// they only log a warning. Counters persist in redis when one is configured.
func WithTokenBudget(daily, monthly int64, reject bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.dailyTokens = daily
		c.monthlyTokens = monthly
		c.rejectOverrun = reject
	})
}

// WithCallTimeout bounds every external call. Default: 30s.
func WithCallTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.callTimeout = d
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// toConfig maps options onto the service configuration; zero values fall
// back to the service defaults.
func (c *clientConfig) toConfig() config.Config {
	cfg := config.Config{
		Database:    config.DatabaseConfig{Addrs: c.addrs, Password: c.password},
		VectorStore: config.VectorStoreConfig{
			Driver: c.driver, Index: c.index,
			Algorithm: c.algorithm, HNSWM: c.hnswM, HNSWEFConstruct: c.hnswEF,
		},
		Qdrant:      config.QdrantConfig{Addr: c.qdrantAddr},
		OpenAI:      config.OpenAIConfig{APIKey: c.apiKey, BaseURL: c.baseURL},
		Embedding:   config.EmbeddingConfig{Model: c.embeddingModel, Dimensions: c.dimensions},
		Classifier:  config.ChatModelConfig{Model: c.chatModel},
		Synthesis:   config.SynthesisConfig{Model: c.chatModel},
		Ingest:      config.IngestConfig{BatchSize: c.batchSize},
	}
	if c.cacheTTL > 0 {
		cfg.Embedding.Cache = config.CacheConfig{Enabled: true, TTLHours: max(int(c.cacheTTL/time.Hour), 1)}
	}
	cfg.Embedding.Budget = config.BudgetConfig{DailyTokens: c.dailyTokens, MonthlyTokens: c.monthlyTokens}
	if c.rejectOverrun {
		cfg.Embedding.Budget.Action = "reject"
	}
	if c.callTimeout > 0 {
		cfg.Retrieval.CallTimeoutSec = max(int(c.callTimeout/time.Second), 1)
	}
	cfg.ApplyDefaults()
	return cfg
}
