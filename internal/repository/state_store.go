package repository

import (
	"context"
	"time"
)

// StateStore abstracts ephemeral key-value state, used for throttling the
// public respondent endpoints.
// Implementations: Redis (production) or in-memory (local dev / single-instance).
type StateStore interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Incr increments a counter key and returns the new value. The ttl is
	// applied when the counter is first created, so the window slides per key.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
