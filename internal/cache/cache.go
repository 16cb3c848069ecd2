// Package cache defines the byte store used for fetched upstream resources.
package cache

import (
	"context"
	"time"
)

// Store is a TTL'd byte cache. Implementations must be safe for concurrent
// use; a miss is (nil, false, nil), never an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error

	// DeletePrefix removes every key with the given prefix and reports how
	// many were dropped. Used by run invalidation.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	Close() error
}
