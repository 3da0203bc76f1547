package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/resumeqa/internal/domain"
)

// Vector store drivers.
const (
	DriverRedis  = "redis"
	DriverQdrant = "qdrant"
)

// Config holds the resumeqa configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
	Database    DatabaseConfig    `yaml:"database"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Qdrant      QdrantConfig      `yaml:"qdrant"`
	OpenAI      OpenAIConfig      `yaml:"openai"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Classifier  ChatModelConfig   `yaml:"classifier"`
	Synthesis   SynthesisConfig   `yaml:"synthesis"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Ingest      IngestConfig      `yaml:"ingest"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. Empty api_keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings (vector index and embedding cache).
type DatabaseConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
}

// VectorStoreConfig selects and tunes the vector index backend.
type VectorStoreConfig struct {
	Driver               string `yaml:"driver"` // redis (default), qdrant
	Index                string `yaml:"index"`
	ReadinessAttempts    int    `yaml:"readiness_attempts"`
	ReadinessIntervalSec int    `yaml:"readiness_interval_sec"`
	Algorithm            string `yaml:"algorithm"` // hnsw (default), flat; redis only
	HNSWM                int    `yaml:"hnsw_m"`
	HNSWEFConstruct      int    `yaml:"hnsw_ef_construction"`
}

// QdrantConfig holds the Qdrant gRPC endpoint.
type QdrantConfig struct {
	Addr string `yaml:"addr"`
}

// OpenAIConfig holds provider connection settings.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// EmbeddingConfig holds embedding model settings.
type EmbeddingConfig struct {
	Model      string       `yaml:"model"`
	Dimensions int          `yaml:"dimensions"`
	MaxBatch   int          `yaml:"max_batch"`
	Cache      CacheConfig  `yaml:"cache"`
	Budget     BudgetConfig `yaml:"budget"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled"`
	TTLHours int  `yaml:"ttl_hours"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokens   int64  `yaml:"daily_tokens"`   // 0 = unlimited
	MonthlyTokens int64  `yaml:"monthly_tokens"` // 0 = unlimited
	Action        string `yaml:"action"`         // "reject" | "warn" (default)
}

// ChatModelConfig holds a chat model and its sampling temperature.
type ChatModelConfig struct {
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
}

// SynthesisConfig holds answer generation settings.
type SynthesisConfig struct {
	Model          string   `yaml:"model"`
	Temperature    *float32 `yaml:"temperature"` // nil = 0.2
	MaxContextDocs int      `yaml:"max_context_docs"`
}

// RetrievalConfig holds query-time settings.
type RetrievalConfig struct {
	DefaultTopK    int `yaml:"default_top_k"`
	MaxTopK        int `yaml:"max_top_k"`
	CallTimeoutSec int `yaml:"call_timeout_sec"`
}

// IngestConfig holds batch job settings.
type IngestConfig struct {
	BatchSize         int     `yaml:"batch_size"`
	CheckpointPath    string  `yaml:"checkpoint_path"`
	Pipeline          bool    `yaml:"pipeline"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int     `yaml:"burst"`
}

// Load reads configuration by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path. A .env file in the
// working directory is loaded first when present.
func LoadFile(configPath string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("%w: load .env: %w", domain.ErrConfiguration, err)
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("%w: read config %s: %w", domain.ErrConfiguration, configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse config: %w", domain.ErrConfiguration, err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 90 // retrieve + answer may take several model calls
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	c.applyVectorStoreDefaults()
	c.applyModelDefaults()
	if c.Retrieval.DefaultTopK <= 0 {
		c.Retrieval.DefaultTopK = 5
	}
	if c.Retrieval.MaxTopK <= 0 {
		c.Retrieval.MaxTopK = 50
	}
	if c.Retrieval.CallTimeoutSec <= 0 {
		c.Retrieval.CallTimeoutSec = 30
	}
	if c.Ingest.BatchSize <= 0 {
		c.Ingest.BatchSize = 100
	}
	if c.Ingest.CheckpointPath == "" {
		c.Ingest.CheckpointPath = ".resumeqa/ingest.db"
	}
	if c.Ingest.Burst <= 0 {
		c.Ingest.Burst = 1
	}
}

func (c *Config) applyVectorStoreDefaults() {
	if c.VectorStore.Driver == "" {
		c.VectorStore.Driver = DriverRedis
	}
	if c.VectorStore.Index == "" {
		c.VectorStore.Index = "resumes-index"
	}
	if c.VectorStore.ReadinessAttempts <= 0 {
		c.VectorStore.ReadinessAttempts = 30
	}
	if c.VectorStore.ReadinessIntervalSec <= 0 {
		c.VectorStore.ReadinessIntervalSec = 2
	}
	if c.VectorStore.Algorithm == "" {
		c.VectorStore.Algorithm = "hnsw"
	}
	if c.VectorStore.HNSWM <= 0 {
		c.VectorStore.HNSWM = 16
	}
	if c.VectorStore.HNSWEFConstruct <= 0 {
		c.VectorStore.HNSWEFConstruct = 200
	}
}

func (c *Config) applyModelDefaults() {
	vc := domain.DefaultVectorConfig()
	if c.Embedding.Model == "" {
		c.Embedding.Model = vc.Model
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = vc.Dimensions
	}
	if c.Embedding.MaxBatch <= 0 {
		c.Embedding.MaxBatch = 256
	}
	if c.Embedding.Cache.TTLHours <= 0 {
		c.Embedding.Cache.TTLHours = 24 * 30
	}
	if c.Embedding.Budget.Action == "" {
		c.Embedding.Budget.Action = "warn"
	}
	if c.Classifier.Model == "" {
		c.Classifier.Model = "gpt-4o-mini"
	}
	if c.Synthesis.Model == "" {
		c.Synthesis.Model = "gpt-4o-mini"
	}
	if c.Synthesis.Temperature == nil {
		t := float32(0.2)
		c.Synthesis.Temperature = &t
	}
	if c.Synthesis.MaxContextDocs <= 0 {
		c.Synthesis.MaxContextDocs = 5
	}
}

// Validate checks the configuration for correctness. Errors wrap
// domain.ErrConfiguration.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return configError("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		return configError("openai.api_key is required (set OPENAI_API_KEY)")
	}
	switch c.VectorStore.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return configError("database.addrs is required for the redis vector store")
		}
	case DriverQdrant:
		if c.Qdrant.Addr == "" {
			return configError("qdrant.addr is required for the qdrant vector store")
		}
	default:
		return configError("vector_store.driver must be %q or %q, got %q",
			DriverRedis, DriverQdrant, c.VectorStore.Driver)
	}
	if a := c.VectorStore.Algorithm; a != "" && a != "hnsw" && a != "flat" {
		return configError("vector_store.algorithm must be \"hnsw\" or \"flat\", got %q", a)
	}
	if c.Embedding.Cache.Enabled && len(c.Database.Addrs) == 0 {
		return configError("database.addrs is required when embedding.cache is enabled")
	}
	switch c.Embedding.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return configError("embedding.budget.action must be \"warn\" or \"reject\", got %q",
			c.Embedding.Budget.Action)
	}
	if c.Retrieval.DefaultTopK > c.Retrieval.MaxTopK {
		return configError("retrieval.default_top_k (%d) exceeds retrieval.max_top_k (%d)",
			c.Retrieval.DefaultTopK, c.Retrieval.MaxTopK)
	}
	if c.Ingest.RequestsPerSecond < 0 {
		return configError("ingest.requests_per_second must not be negative")
	}
	return nil
}

// CallTimeout returns the per-call bound for external services.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Retrieval.CallTimeoutSec) * time.Second
}

// ReadinessInterval returns the index readiness poll interval.
func (c *Config) ReadinessInterval() time.Duration {
	return time.Duration(c.VectorStore.ReadinessIntervalSec) * time.Second
}

// CacheTTL returns the embedding cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Embedding.Cache.TTLHours) * time.Hour
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrConfiguration, fmt.Sprintf(format, args...))
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
