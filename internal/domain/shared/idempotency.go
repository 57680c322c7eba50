package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers client supplied idempotency keys so a retried
// request resolves to the result of the first one.
type IdempotencyStore interface {
	// Reserve stores value under key if the key is free and returns reserved=true.
	// If the key is already taken it returns the stored value and reserved=false.
	Reserve(ctx context.Context, key, value string, ttl time.Duration) (existing string, reserved bool, err error)

	// Release frees a key, used when the guarded operation failed and may be retried
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
