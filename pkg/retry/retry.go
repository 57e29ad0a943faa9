// Package retry runs an operation a bounded number of times with
// exponential backoff, honoring context cancellation between attempts.
package retry

import (
	"context"
	"time"
)

// Config bounds the retry loop.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultConfig matches the repository-call retry policy: three attempts
// starting at 100ms.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond}
}

// Do invokes fn until it succeeds, the attempt budget is spent, or
// retryable reports the error as permanent. The last error is returned.
func Do(ctx context.Context, cfg Config, retryable func(error) bool, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}

	var err error
	delay := cfg.BaseDelay
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if attempt == cfg.MaxAttempts {
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
