// Package budget persists embedding token counters in Redis.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/resumeqa/internal/db"
)

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrByWithTTL(ctx context.Context, key string, val int64, ttl time.Duration) (int64, error)
}

// Store keeps one counter per provider and period. A counter expires
// after its period's TTL counted from the first increment.
type Store struct {
	store store
	ttls  map[string]time.Duration
}

// New creates a budget store. Daily counters should outlive a day (48h),
// monthly ones a month (62 days).
func New(s store, dailyTTL, monthTTL time.Duration) *Store {
	return &Store{
		store: s,
		ttls: map[string]time.Duration{
			"daily":   dailyTTL,
			"monthly": monthTTL,
		},
	}
}

// IncrBy adds tokens to the counter at key.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if _, err := s.store.IncrByWithTTL(ctx, key, val, s.ttl(key)); err != nil {
		return fmt.Errorf("budget incr %s: %w", key, err)
	}
	return nil
}

// Get returns the counter at key; a missing counter reads as 0.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	raw, err := s.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("budget get %s: %w", key, err)
	}

	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget get %s: bad counter %q: %w", key, raw, err)
	}
	return n, nil
}

// ttl picks the expiry from the period segment:
// resumeqa:budget:{provider}:{period}:{stamp}. Unknown periods get the longest TTL.
func (s *Store) ttl(key string) time.Duration {
	parts := strings.Split(key, ":")
	if len(parts) >= 2 {
		if d, ok := s.ttls[parts[len(parts)-2]]; ok {
			return d
		}
	}
	return s.ttls["monthly"]
}
