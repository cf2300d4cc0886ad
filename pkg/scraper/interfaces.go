package scraper

import (
	"context"

	"tumdlr/pkg/ledger"
	"tumdlr/pkg/tumblr"
)

// PostSource yields a blog's posts one at a time. The orchestrator
// pulls from it, so enumeration never runs ahead of the bounded task
// queue.
type PostSource interface {
	Blog() string
	Next(ctx context.Context) (*tumblr.Post, error)
}

// AdmissionLedger decides which assets get downloaded and tracks their
// outcomes across runs
type AdmissionLedger interface {
	Claim(contentID string) ledger.Decision
	Record(contentID string, outcome ledger.Outcome, path string) error
	Release(contentID string)
	PermanentFailures() []string
}
