package throttle

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"tumdlr/pkg/config"
	"tumdlr/pkg/errors"
)

// Controller gates outbound request timing. Acquire grants control to
// the caller no earlier than lastDispatch plus a delay drawn uniformly
// from [min, max]. The gate is global: the effective inter-request
// spacing holds across all concurrent workers, not per worker.
type Controller struct {
	enabled bool
	min     time.Duration
	max     time.Duration

	mu           sync.Mutex
	lastDispatch time.Time
}

// New creates a throttle controller from configuration. A min bound
// above the max bound is a misconfiguration and fails fast.
func New(cfg config.ThrottleConfig) (*Controller, error) {
	if cfg.MinDelayMs > cfg.MaxDelayMs {
		return nil, errors.NewConfigError("throttle min delay (%dms) exceeds max delay (%dms)",
			cfg.MinDelayMs, cfg.MaxDelayMs)
	}
	if cfg.MinDelayMs < 0 || cfg.MaxDelayMs < 0 {
		return nil, errors.NewConfigError("throttle delay bounds cannot be negative")
	}

	return &Controller{
		enabled: cfg.Enabled,
		min:     time.Duration(cfg.MinDelayMs) * time.Millisecond,
		max:     time.Duration(cfg.MaxDelayMs) * time.Millisecond,
	}, nil
}

// Disabled returns a controller whose Acquire is a no-op
func Disabled() *Controller {
	return &Controller{enabled: false}
}

// Acquire blocks the caller until its dispatch slot opens, then
// records the dispatch time before releasing. Callers are serialized:
// the mutex is held across the wait so the next caller computes its
// slot from this caller's recorded dispatch. The wait is cooperative
// and honors context cancellation.
func (c *Controller) Acquire(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	target := c.lastDispatch.Add(c.randomDelay())
	if wait := time.Until(target); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.lastDispatch = time.Now()
	return nil
}

// randomDelay draws a delay uniformly from [min, max]
func (c *Controller) randomDelay() time.Duration {
	if c.max <= c.min {
		return c.min
	}
	return c.min + time.Duration(rand.Int63n(int64(c.max-c.min)+1))
}
