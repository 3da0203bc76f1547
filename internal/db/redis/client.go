package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/resumeqa/internal/db"
)

var _ db.Store = (*Store)(nil)

// clientName shows up in CLIENT LIST so operators can tell resumeqa
// connections apart from other tenants of a shared Redis.
const clientName = "resumeqa"

// readyPollInterval is the gap between pings in WaitForReady.
const readyPollInterval = 100 * time.Millisecond

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs    []string
	Password string
}

// Store implements db.Store over rueidis for Redis 8+ or Redis Stack (FT.* commands).
type Store struct {
	client rueidis.Client
}

// NewStore creates a Redis store. rueidis connects eagerly, so an
// unreachable address fails here rather than on the first command.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis: at least one address is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Password:     cfg.Password,
		ClientName:   clientName,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH / FT.INFO parsing expects RESP2 arrays
	})
	if err != nil {
		return nil, fmt.Errorf("redis: connect %s: %w", strings.Join(cfg.Addrs, ","), err)
	}
	return &Store{client: client}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings right away and then every readyPollInterval until Redis
// answers or timeout expires. The last ping error is reported on timeout.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		err := s.Ping(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("redis not ready after %s: %w", timeout, err)
		case <-ticker.C:
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// isRedisErr reports whether err is a Redis server error whose message
// contains substr, ignoring case (Redis Stack and Redis 8 differ in casing).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return containsIgnoreCase(re.Error(), substr)
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
