// Package utils holds small helpers shared by paysign packages.
package utils

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"time"

	"paysign/internal/common/errors"
)

// RetryConfig controls RetryWithBackoff.
type RetryConfig struct {
	// MaxAttempts counts the first attempt. Values below 1 mean a single attempt.
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	// JitterFactor adds up to that fraction of the delay, 0.1 = 10%.
	JitterFactor float64

	// Retryable decides whether err is worth another attempt. Nil means
	// IsRetryable.
	Retryable func(err error) bool
	// OnRetry is called before sleeping between attempts.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryConfig is tuned for webhook delivery: four attempts over
// roughly seven seconds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   4,
		InitialDelay:  time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}
}

// IsRetryable reports whether err may succeed on a later attempt. Signing and
// verification failures are terminal; connection and internal errors, and
// errors outside the taxonomy, are retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return true
	}
	return !appErr.Terminal()
}

// Delay returns the wait before retry number attempt (1-based), without jitter.
func (c RetryConfig) Delay(attempt int) time.Duration {
	delay := c.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * c.BackoffFactor)
		if c.MaxDelay > 0 && delay >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		return c.MaxDelay
	}
	return delay
}

// RetryWithBackoff calls fn until it succeeds, returns a non-retryable error,
// runs out of attempts or ctx is done. A non-retryable error is returned as is;
// exhaustion wraps the last error.
func RetryWithBackoff(ctx context.Context, config RetryConfig, fn func(ctx context.Context) error) error {
	retryable := config.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		delay := config.Delay(attempt)
		if config.JitterFactor > 0 {
			delay += randomDuration(time.Duration(float64(delay) * config.JitterFactor))
		}
		if config.OnRetry != nil {
			config.OnRetry(attempt, lastErr, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("max retries exceeded after %d attempts: %w", attempts, lastErr)
}

// randomDuration returns a value in [0, n).
func randomDuration(n time.Duration) time.Duration {
	if n <= 0 {
		return 0
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return time.Duration(binary.BigEndian.Uint64(b[:]) % uint64(n))
}
