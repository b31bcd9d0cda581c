package services

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/logger"
)

// RetryConfig bounds the retry of transient failures.
type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultRetryConfig returns the retry policy used for Zendesk requests.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     domain.DefaultMaxRetries,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     30 * time.Second,
		Multiplier:      2,
	}
}

func (c RetryConfig) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if c.InitialInterval > 0 {
		b.InitialInterval = c.InitialInterval
	}
	if c.MaxInterval > 0 {
		b.MaxInterval = c.MaxInterval
	}
	if c.Multiplier > 0 {
		b.Multiplier = c.Multiplier
	}
	return b
}

// withRetry runs op until it succeeds, fails with a non-transient error,
// or MaxAttempts is exhausted. onRetry is called before every retry.
func withRetry[T any](ctx context.Context, cfg RetryConfig, what string, onRetry func(), op func() (T, error)) (T, error) {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	operation := func() (T, error) {
		v, err := op()
		if err != nil && !domain.IsTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn("%s failed, retrying in %s: %v", what, wait.Round(time.Millisecond), err)
		if onRetry != nil {
			onRetry()
		}
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(cfg.backOff()),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithNotify(notify),
	)
}
