package cache

import (
	"context"
	"time"
)

// Store is the pending-verification cache contract: a time-bounded
// key-value store with last-write-wins overwrite semantics. Expired
// entries behave exactly like absent ones.
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns the value and true when the key exists and has not
	// expired. A missing key is not an error.
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}
