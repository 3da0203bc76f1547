package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultCallTimeout bounds every external call (classifier, embedder, store, synthesizer).
const DefaultCallTimeout = 30 * time.Second

// CallWithTimeout runs fn under a per-call deadline. A deadline overrun is
// reported as ErrTimeout instead of the callee's own error kind.
func CallWithTimeout(ctx context.Context, timeout time.Duration, what string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(callCtx)
	if err == nil {
		return nil
	}
	// parent cancellation is not a timeout of this call
	if ctx.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s exceeded %s: %v", ErrTimeout, what, timeout, err)
	}
	return err
}
