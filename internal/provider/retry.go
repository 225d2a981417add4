package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	retryAttempts  = 5
	retryBaseDelay = 2 * time.Second
)

// retrier applies the rate-limit retry policy: up to retryAttempts total
// attempts, delayed by the provider's retry-after hint when present, else
// exponential backoff doubling from retryBaseDelay. Only rate-limit errors
// are retried. The sleep function is injectable so tests can observe the
// exact delay schedule without waiting.
type retrier struct {
	attempts  int
	baseDelay time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

func newRetrier() retrier {
	return retrier{
		attempts:  retryAttempts,
		baseDelay: retryBaseDelay,
		sleep:     sleepContext,
	}
}

func (r retrier) do(ctx context.Context, providerName string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var pe *Error
		if !errors.As(err, &pe) || pe.Kind != KindRateLimited {
			return err
		}
		lastErr = err

		if attempt == r.attempts {
			break
		}

		delay := r.baseDelay << (attempt - 1)
		if pe.RetryAfter > 0 {
			delay = pe.RetryAfter
		}
		slog.Warn("rate limited, backing off",
			"provider", providerName,
			"attempt", attempt,
			"delay", delay,
		)
		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return &Error{
		Kind:     KindUpstream,
		Provider: providerName,
		Message:  fmt.Sprintf("rate limit exceeded after %d attempts: %v", r.attempts, lastErr),
	}
}

// sleepContext sleeps for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
