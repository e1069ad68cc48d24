package embedder

import (
	"context"
	"errors"
	"time"
)

// RetryConfig controls how provider calls are retried
type RetryConfig struct {
	MaxRetries int // total attempts, including the first
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64

	// Retryable filters errors worth another attempt; nil retries all of them
	Retryable func(error) bool
}

// DefaultRetryConfig returns the policy applied to OpenAI calls
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: MaxRetries,
		BaseDelay:  InitialBackoffMs * time.Millisecond,
		MaxDelay:   MaxBackoffMs * time.Millisecond,
		Multiplier: BackoffMultiplier,
		Retryable:  isTransient,
	}
}

// Bad credentials and oversized inputs fail the same way on every attempt
func isTransient(err error) bool {
	return !errors.Is(err, ErrAuthentication) && !errors.Is(err, ErrInputTooLong)
}

// delays yields the wait before each retry, growing by Multiplier up to MaxDelay
type delays struct {
	cfg  RetryConfig
	next time.Duration
}

func (d *delays) step() time.Duration {
	wait := d.next
	grown := time.Duration(float64(d.next) * d.cfg.Multiplier)
	d.next = min(grown, d.cfg.MaxDelay)
	return wait
}

// retryWithBackoff calls fn until it succeeds, returns a non-retryable error,
// runs out of attempts, or ctx is done. The last error is returned on exhaustion.
func retryWithBackoff[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	attempts := max(cfg.MaxRetries, 1)
	wait := &delays{cfg: cfg, next: cfg.BaseDelay}

	var err error
	for attempt := 1; ; attempt++ {
		var result T
		if result, err = fn(); err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if attempt == attempts || (cfg.Retryable != nil && !cfg.Retryable(err)) {
			return zero, err
		}

		timer := time.NewTimer(wait.step())
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
