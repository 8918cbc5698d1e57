package providers

import (
	"context"
	"time"

	"subforge/internal/services"
)

// RetryPolicy bounds retries of transient provider failures.
type RetryPolicy struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// DefaultRetryPolicy matches the configuration defaults.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Initial: 500 * time.Millisecond, Max: 8 * time.Second}

// WithRetry runs fn, retrying with exponential backoff while the error is
// retryable. Non-retryable errors and context cancellation return
// immediately.
func WithRetry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	delay := policy.Initial
	var err error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		err = fn()
		if err == nil || !services.Retryable(err) {
			return err
		}
		if attempt == policy.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if policy.Max > 0 && delay > policy.Max {
			delay = policy.Max
		}
	}
	return err
}
