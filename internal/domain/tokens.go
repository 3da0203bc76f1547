package domain

import (
	"context"
	"sync/atomic"
)

type tokenMeterKey struct{}

// TokenMeter counts the embedding tokens spent while serving one request.
// The HTTP layer attaches it, retrieval records into it, and the handler
// reports the total in X-Embedding-Tokens.
type TokenMeter struct {
	tokens atomic.Int64
	calls  atomic.Int64
}

// WithTokenMeter returns ctx carrying a fresh meter.
func WithTokenMeter(ctx context.Context) (context.Context, *TokenMeter) {
	m := &TokenMeter{}
	return context.WithValue(ctx, tokenMeterKey{}, m), m
}

// TokenMeterFrom returns the meter in ctx, nil if there is none.
func TokenMeterFrom(ctx context.Context) *TokenMeter {
	m, _ := ctx.Value(tokenMeterKey{}).(*TokenMeter)
	return m
}

// Record adds one embedding call. A cache hit records 0 tokens but still counts. Nil-safe.
func (m *TokenMeter) Record(tokens int) {
	if m == nil {
		return
	}
	m.tokens.Add(int64(tokens))
	m.calls.Add(1)
}

// Total returns the tokens recorded and whether any embedding call happened.
func (m *TokenMeter) Total() (tokens int64, embedded bool) {
	if m == nil {
		return 0, false
	}
	return m.tokens.Load(), m.calls.Load() > 0
}
