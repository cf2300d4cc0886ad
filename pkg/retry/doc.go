// Package retry provides backoff and retry logic for transient
// failures in feed page fetches.
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(func() error {
//		return fetchPage(blog, offset)
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.Exponential{
//			Base:       2 * time.Second,
//			Max:        30 * time.Second,
//			Multiplier: 2.0,
//			Jitter:     0.1,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Context: ctx,
//		Logger:  logger.GetLogger(),
//	}
//	err := retry.Do(operation, cfg)
//
// DefaultRetryIf retries network, rate-limit and server errors and
// gives up immediately on auth and not-found errors, which are
// returned to the caller unchanged. Asset downloads deliberately do
// not use this package; a failed download becomes a ledger entry that
// is retried on the next run instead.
package retry
