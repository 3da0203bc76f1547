package health

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/resumeqa/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing; queries may still work.
	Degraded Status = "degraded"
	// Unhealthy indicates the vector store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentVectorStore = "vector_store"
	ComponentProvider    = "openai"
	ComponentCache       = "embedding_cache"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service probes the vector store and, when configured, the provider and the cache.
type Service struct {
	store    Pinger
	provider Prober
	cache    Pinger
	timeout  time.Duration
}

// New creates a Service for the given vector store.
func New(store Pinger) *Service {
	return &Service{store: store, timeout: DefaultCheckTimeout}
}

// WithProvider adds the model provider check.
func (s *Service) WithProvider(p Prober) *Service {
	s.provider = p
	return s
}

// WithCache adds the embedding cache check.
func (s *Service) WithCache(c Pinger) *Service {
	s.cache = c
	return s
}

// WithTimeout overrides the per-component timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check probes every component concurrently, each under its own timeout.
// A failing vector store makes the report Unhealthy; any other failure Degraded.
func (s *Service) Check(ctx context.Context) Report {
	probes := map[string]func(context.Context) error{
		ComponentVectorStore: s.store.Ping,
	}
	if s.provider != nil {
		probes[ComponentProvider] = s.provider.HealthCheck
	}
	if s.cache != nil {
		probes[ComponentCache] = s.cache.Ping
	}

	var (
		mu     sync.Mutex
		g      errgroup.Group
		checks = make(map[string]CheckResult, len(probes))
	)
	for name, probe := range probes {
		g.Go(func() error {
			res := s.run(ctx, name, probe)
			mu.Lock()
			checks[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // probes never return errors

	status := Healthy
	switch {
	case checks[ComponentVectorStore] == CheckError:
		status = Unhealthy
	case slices.Contains(slices.Collect(maps.Values(checks)), CheckError):
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func (s *Service) run(ctx context.Context, name string, probe func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := probe(ctx); err != nil {
		logger.FromContext(ctx).Warn("Health check failed", zap.String("component", name), zap.Error(err))
		return CheckError
	}
	return CheckOK
}
