package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/resumeqa/internal/domain"
	domusage "github.com/kailas-cloud/resumeqa/internal/domain/usage"
	"github.com/kailas-cloud/resumeqa/internal/metrics"
)

// BudgetAction is what Check does once a limit is reached.
type BudgetAction string

const (
	BudgetActionWarn   BudgetAction = "warn"   // log and let the call through
	BudgetActionReject BudgetAction = "reject" // fail with domain.ErrBudgetExceeded
)

// persistTimeout bounds the write-behind of one Record call.
const persistTimeout = 2 * time.Second

// BudgetStore persists counters so that restarts and parallel CLI runs share them.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// window is a token counter that restarts at each calendar day or month (UTC).
type window struct {
	period string // daily / monthly
	layout string // key suffix format
	limit  int64  // 0 = unlimited
	used   int64
	start  time.Time
	align  func(time.Time) time.Time
}

func newWindow(period string, limit int64, now time.Time) window {
	w := window{period: period, limit: limit, layout: "2006-01", align: startOfMonth}
	if period == "daily" {
		w.layout, w.align = "2006-01-02", startOfDay
	}
	w.start = w.align(now)
	return w
}

// roll zeroes the counter once now is past the window's period.
func (w *window) roll(now time.Time) {
	if s := w.align(now); s.After(w.start) {
		w.start, w.used = s, 0
	}
}

func (w *window) exhausted() bool { return w.limit > 0 && w.used >= w.limit }

// remaining is -1 for an unlimited window.
func (w *window) remaining() int64 {
	if w.limit == 0 {
		return -1
	}
	return max(w.limit-w.used, 0)
}

func (w *window) key(provider string, now time.Time) string {
	return fmt.Sprintf("%sbudget:%s:%s:%s", domain.KeyPrefix, provider, w.period, now.Format(w.layout))
}

// BudgetTracker enforces daily and monthly token limits for one provider.
// Counters live in memory; an attached store receives write-behind increments
// and seeds the counters at startup. Check never leaves the process.
type BudgetTracker struct {
	mu       sync.Mutex
	day      window
	month    window
	action   BudgetAction
	provider string
	now      func() time.Time
	store    BudgetStore
	logger   *zap.Logger
}

// NewBudgetTracker creates a tracker. A zero limit means unlimited.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	now := time.Now().UTC()
	return &BudgetTracker{
		day:      newWindow("daily", dailyLimit, now),
		month:    newWindow("monthly", monthlyLimit, now),
		action:   action,
		provider: provider,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// WithClock replaces the time source and re-anchors both windows to it.
func (b *BudgetTracker) WithClock(now func() time.Time) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
	t := now()
	b.day.start = b.day.align(t)
	b.month.start = b.month.align(t)
	return b
}

// WithStore attaches a persistence store and seeds the counters from it.
// A failed read leaves that counter at zero.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := b.now()
	for _, w := range []*window{&b.day, &b.month} {
		used, err := store.Get(ctx, w.key(b.provider, now))
		if err != nil {
			b.logger.Warn("Failed to load budget counter", zap.String("period", w.period), zap.Error(err))
			continue
		}
		w.used = used
	}

	b.logger.Info("Budget loaded from store",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.day.used),
		zap.Int64("monthly_used", b.month.used),
	)
	return b
}

// Check returns domain.ErrBudgetExceeded when a limit is reached and the
// action is reject; with warn it only logs.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollLocked()

	if !b.day.exhausted() && !b.month.exhausted() {
		return nil
	}
	if b.action == BudgetActionReject {
		return fmt.Errorf("%w: %s used %d/%d daily, %d/%d monthly", domain.ErrBudgetExceeded,
			b.provider, b.day.used, b.day.limit, b.month.used, b.month.limit)
	}

	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.day.used),
		zap.Int64("daily_limit", b.day.limit),
		zap.Int64("monthly_used", b.month.used),
		zap.Int64("monthly_limit", b.month.limit),
	)
	return nil
}

// Record adds consumed tokens, refreshes the remaining-budget gauges and
// persists the increment when a store is attached.
func (b *BudgetTracker) Record(tokens int64) {
	if tokens <= 0 {
		return
	}

	b.mu.Lock()
	b.rollLocked()
	now := b.now()
	type increment struct{ key, period string }
	incs := make([]increment, 0, 2)
	for _, w := range []*window{&b.day, &b.month} {
		w.used += tokens
		metrics.EmbeddingBudgetTokensRemaining.WithLabelValues(b.provider, w.period).Set(float64(w.remaining()))
		incs = append(incs, increment{w.key(b.provider, now), w.period})
	}
	store := b.store
	b.mu.Unlock()

	if store == nil {
		return
	}

	// Detached: the caller's deadline must not drop the increment.
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	for _, inc := range incs {
		if err := store.IncrBy(ctx, inc.key, tokens); err != nil {
			b.logger.Warn("Failed to persist budget counter",
				zap.String("period", inc.period), zap.String("key", inc.key), zap.Error(err))
		}
	}
}

// RemainingDaily returns tokens left today, -1 if unlimited.
func (b *BudgetTracker) RemainingDaily() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollLocked()
	return b.day.remaining()
}

// RemainingMonthly returns tokens left this month, -1 if unlimited.
func (b *BudgetTracker) RemainingMonthly() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollLocked()
	return b.month.remaining()
}

// Snapshot returns the counters after any day or month rollover.
func (b *BudgetTracker) Snapshot() domusage.Counters {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollLocked()
	return domusage.Counters{
		DailyUsed:    b.day.used,
		DailyLimit:   b.day.limit,
		MonthlyUsed:  b.month.used,
		MonthlyLimit: b.month.limit,
	}
}

func (b *BudgetTracker) rollLocked() {
	now := b.now()
	b.day.roll(now)
	b.month.roll(now)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
