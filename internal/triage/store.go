package triage

import "context"

// Store is the persistence interface for triage results.
type Store interface {
	Get(ctx context.Context, id string) (*Result, bool, error)
	GetByFingerprint(ctx context.Context, fingerprint string) (*Result, bool, error)
	Put(ctx context.Context, result *Result) error
	// RecentCompleted returns up to limit completed results, newest first.
	// It feeds the few-shot memory.
	RecentCompleted(ctx context.Context, limit int) ([]*Result, error)
}
