package cache

import (
	"context"
	"time"

	"github.com/matzehuels/stampgrid/pkg/observability"
)

// Instrumented reports hits, misses and writes of an inner cache to the
// registered observability hooks, and retries transient backend failures.
type Instrumented struct {
	Cache
	KeyType string
}

// Instrument wraps c. keyType labels the reported events.
func Instrument(c Cache, keyType string) *Instrumented {
	return &Instrumented{Cache: c, KeyType: keyType}
}

func (i *Instrumented) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	err = RetryWithBackoff(ctx, func() error {
		data, ok, err = i.Cache.Get(ctx, key)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if ok {
		observability.Cache().OnCacheHit(ctx, i.KeyType)
	} else {
		observability.Cache().OnCacheMiss(ctx, i.KeyType)
	}
	return data, ok, nil
}

func (i *Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := RetryWithBackoff(ctx, func() error {
		return i.Cache.Set(ctx, key, data, ttl)
	})
	if err == nil {
		observability.Cache().OnCacheSet(ctx, i.KeyType, len(data))
	}
	return err
}
