package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Backoff computes the pause before a given retry attempt.
type Backoff interface {
	Delay(attempt int) time.Duration
}

// Exponential grows the delay geometrically, capped at Max, with
// optional jitter to spread out concurrent retriers.
type Exponential struct {
	Base       time.Duration
	Max        time.Duration
	Multiplier float64
	// Jitter is the fraction of the delay randomized in both
	// directions (0.0 to 1.0).
	Jitter float64
}

// DefaultExponential returns the backoff used for page fetches.
func DefaultExponential() *Exponential {
	return &Exponential{
		Base:       1 * time.Second,
		Max:        60 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.1,
	}
}

func (e *Exponential) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	d := float64(e.Base) * math.Pow(e.Multiplier, float64(attempt-1))
	if d > float64(e.Max) {
		d = float64(e.Max)
	}

	if e.Jitter > 0 {
		spread := d * e.Jitter
		d += (rand.Float64() * 2 * spread) - spread
	}
	if d < 0 {
		d = 0
	}

	return time.Duration(d)
}

// Constant pauses the same amount before every attempt.
type Constant struct {
	Interval time.Duration
}

func (c Constant) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return c.Interval
}

// Wait sleeps for delay or until the context is cancelled.
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
