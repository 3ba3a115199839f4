package ports

import (
	"context"
	"time"
)

// IdempotencyStore records side effects that already happened so that a
// retried or reconciled operation never executes them twice.
type IdempotencyStore interface {
	// Acquire takes a short lived lock on key. It reports false when another
	// worker holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release drops the lock without marking key done.
	Release(ctx context.Context, key string) error
	// MarkDone records that the side effect behind key completed.
	MarkDone(ctx context.Context, key string) error
	Done(ctx context.Context, key string) (bool, error)
}
