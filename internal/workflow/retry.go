package workflow

import (
	"context"
	"time"
)

// withRetry runs fn until it succeeds, retryable reports false, or maxRetries
// retries were spent. It returns the number of attempts made.
func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, retryable func(error) bool, fn func(context.Context) error) (int, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return attempt + 1, nil
		}
		if attempt >= maxRetries || !retryable(err) {
			return attempt + 1, err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt + 1, ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
