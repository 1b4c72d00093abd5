// Package retry re-runs operations that failed with a concurrency conflict.
// Lock-wait timeouts and serialization failures are safe to retry because
// every mutating operation is one transaction that either fully applied or
// left no trace.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/pharmstock/backend/internal/domain/shared"
)

// Options controls the retry behavior
type Options struct {
	// MaxAttempts is the total number of tries, including the first
	MaxAttempts int
	// BaseDelay is the wait before the first retry; each subsequent wait doubles
	BaseDelay time.Duration
}

// DefaultOptions retries three times with a 50ms initial backoff
func DefaultOptions() Options {
	return Options{
		MaxAttempts: 3,
		BaseDelay:   50 * time.Millisecond,
	}
}

// OnConflict runs fn, retrying with exponential backoff as long as it fails
// with shared.ErrConcurrencyConflict. Any other error, success, or context
// cancellation stops the loop immediately.
func OnConflict(ctx context.Context, opts Options, fn func(ctx context.Context) error) error {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	var err error
	delay := opts.BaseDelay
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil || !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		if attempt == opts.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
