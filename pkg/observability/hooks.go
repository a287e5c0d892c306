// Package observability provides hooks for metrics, tracing, and logging.
//
// Hooks let callers instrument catalog generation, image composition, and
// cache traffic without the library depending on a metrics backend.
// Defaults are no-ops; register custom implementations once at startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call the registered hooks around each stage:
//
//	observability.Pipeline().OnComposeStart(ctx, job, rows)
//	// ... compose ...
//	observability.Pipeline().OnComposeComplete(ctx, job, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the simulation pipeline.
type PipelineHooks interface {
	// Catalog events
	OnCatalogStart(ctx context.Context, name string, n int)
	OnCatalogComplete(ctx context.Context, name string, rows int, duration time.Duration, err error)

	// Compose events, one per realization
	OnComposeStart(ctx context.Context, job string, rows int)
	OnComposeComplete(ctx context.Context, job string, duration time.Duration, err error)

	// OnWrite records an image written to disk.
	OnWrite(ctx context.Context, path string, bytes int64)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnCatalogStart(context.Context, string, int) {}
func (NoopPipelineHooks) OnCatalogComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnComposeStart(context.Context, string, int)                     {}
func (NoopPipelineHooks) OnComposeComplete(context.Context, string, time.Duration, error) {}
func (NoopPipelineHooks) OnWrite(context.Context, string, int64)                          {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}
