package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	errs "tumdlr/pkg/errors"
)

func TestExponentialDelayGrowth(t *testing.T) {
	backoff := &Exponential{
		Base:       100 * time.Millisecond,
		Max:        1 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{6, 1 * time.Second},
	}

	for _, test := range tests {
		if got := backoff.Delay(test.attempt); got != test.expected {
			t.Errorf("attempt %d: expected %v, got %v", test.attempt, test.expected, got)
		}
	}
}

func TestExponentialJitterVariesDelays(t *testing.T) {
	backoff := &Exponential{
		Base:       100 * time.Millisecond,
		Max:        1 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.3,
	}

	delays := make(map[time.Duration]bool)
	for i := 0; i < 10; i++ {
		delays[backoff.Delay(2)] = true
	}

	if len(delays) < 2 {
		t.Error("expected jitter to produce varying delays")
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     Constant{Interval: 10 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	if err := Do(op, cfg); err != nil {
		t.Errorf("expected success after retries, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoStopsAtAttemptBudget(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		return errors.New("persistent error")
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     Constant{Interval: 10 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	err := Do(op, cfg)
	if err == nil {
		t.Fatal("expected error when attempts are exhausted")
	}
	if !strings.Contains(err.Error(), "max retry attempts") {
		t.Errorf("expected exhaustion error, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoReturnsNonRetryableErrorUnchanged(t *testing.T) {
	attempts := 0
	authErr := &errs.Error{
		Type:    errs.ErrorTypeAuth,
		Message: "authentication required",
		Code:    401,
	}

	op := func() error {
		attempts++
		return authErr
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     Constant{Interval: 10 * time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}

	err := Do(op, cfg)
	if err != authErr {
		t.Errorf("expected the auth error itself, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected a single attempt, got %d", attempts)
	}
}

func TestDoHonoursContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	op := func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     Constant{Interval: 100 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     ctx,
	}

	err := Do(op, cfg)
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation error, got: %v", err)
	}
	if attempts > 3 {
		t.Errorf("expected at most 3 attempts before cancellation, got %d", attempts)
	}
}

func TestDefaultRetryIfClassifiesErrorKinds(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		retry bool
	}{
		{"nil", nil, false},
		{"network", &errs.Error{Type: errs.ErrorTypeNetwork}, true},
		{"rate limit", &errs.Error{Type: errs.ErrorTypeRateLimit}, true},
		{"server", &errs.Error{Type: errs.ErrorTypeServerError}, true},
		{"auth", &errs.Error{Type: errs.ErrorTypeAuth}, false},
		{"not found", &errs.Error{Type: errs.ErrorTypeNotFound}, false},
		{"context cancelled", context.Canceled, false},
		{"plain error", errors.New("mystery"), true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := DefaultRetryIf(test.err); got != test.retry {
				t.Errorf("expected retry=%v, got %v", test.retry, got)
			}
		})
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	op := func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     Constant{Interval: 10 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	result, err := DoWithResult(op, cfg)
	if err != nil {
		t.Errorf("expected success, got: %v", err)
	}
	if result != "success" {
		t.Errorf("expected %q, got %q", "success", result)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}
