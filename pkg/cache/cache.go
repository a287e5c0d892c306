// Package cache stores composed realizations so repeated runs with the same
// catalog, seed and drawing options skip the renderer.
//
// Backends implement [Cache]: [FileCache] for local use, [RedisCache] for
// shared runs and [NullCache] to disable caching. Keys come from a [Keyer]
// so that every input affecting pixels is part of the key.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}
