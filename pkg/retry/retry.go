package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "tumdlr/pkg/errors"
	"tumdlr/pkg/logger"
)

// Operation is a function that may fail transiently.
type Operation func() error

// Config controls how an operation is retried.
type Config struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// Backoff determines the pause between attempts.
	Backoff Backoff
	// RetryIf decides whether an error is worth another attempt.
	RetryIf func(error) bool
	// Context cancels the backoff wait.
	Context context.Context
	// Logger records retry attempts.
	Logger logger.Logger
}

// DefaultConfig returns the retry policy used for feed page fetches.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     DefaultExponential(),
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.GetLogger(),
	}
}

// DefaultRetryIf retries network, rate-limit and server errors.
// Auth and not-found errors will not change on a second try, and
// cancellation is never retried.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		return errs.IsRetryable(apiErr.Type)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return true
}

// Do runs op, retrying per cfg. Non-retryable errors are returned
// unchanged so callers can inspect their type; exhausting the attempt
// budget wraps the last error.
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if cfg.MaxAttempts > 0 && attempt > cfg.MaxAttempts {
			if cfg.Logger != nil {
				cfg.Logger.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts":   attempt - 1,
					"last_error": lastErr.Error(),
				})
			}
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
		}

		err := op()
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}
		lastErr = err

		if !cfg.RetryIf(err) {
			return err
		}

		delay := time.Duration(0)
		if cfg.Backoff != nil {
			delay = cfg.Backoff.Delay(attempt)
		}

		if cfg.Logger != nil {
			cfg.Logger.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"error":        err.Error(),
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": cfg.MaxAttempts,
			})
		}

		ctx := cfg.Context
		if ctx == nil {
			ctx = context.Background()
		}
		if err := Wait(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult runs an operation that produces a value, retrying per cfg.
func DoWithResult[T any](op func() (T, error), cfg *Config) (T, error) {
	var result T
	err := Do(func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)
	return result, err
}
