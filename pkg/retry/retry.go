package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/reelcraft/newsreel/pkg/logger"
)

type Config struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	Multiplier      float64
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxElapsedTime:  2 * time.Minute,
		Multiplier:      1.5,
	}
}

// Permanent marks an error as non-retryable, stopping the backoff loop
// immediately. Remote clients use it for 4xx responses that repeating
// cannot fix.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Do runs operation with exponential backoff until it succeeds, returns a
// permanent error, or the retry budget is spent. The returned error is
// prefixed with operationName so callers can log it as-is.
func Do(ctx context.Context, log logger.Logger, operationName string, operation func() error, cfg Config) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval
	bo.MaxInterval = cfg.MaxInterval
	bo.MaxElapsedTime = cfg.MaxElapsedTime
	bo.Multiplier = cfg.Multiplier
	bo.Reset()

	attempts := 0
	attempted := func() error {
		attempts++
		return operation()
	}

	notify := func(err error, next time.Duration) {
		log.Warn(
			"Operation failed, retrying...",
			"operation", operationName,
			"attempt", attempts,
			"error", err,
			"next_attempt_in", next.Round(time.Millisecond).String(),
		)
	}

	retryable := backoff.WithContext(backoff.WithMaxRetries(bo, cfg.MaxRetries), ctx)
	if err := backoff.RetryNotify(attempted, retryable, notify); err != nil {
		return fmt.Errorf("%s: %w", operationName, err)
	}

	if attempts > 1 {
		log.Debug("Operation succeeded after retries", "operation", operationName, "attempts", attempts)
	}
	return nil
}
