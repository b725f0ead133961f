// Package observability provides hooks for metrics and tracing.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about fetch attempts, cache operations, and
// batch execution.
//
// The package uses a simple hooks pattern: hook interfaces per event
// category, no-op default implementations, and registration at startup.
// This avoids import cycles (hooks are registered by main, not libraries)
// and keeps the core free of observability framework dependencies.
//
// # Usage
//
//	func main() {
//	    observability.SetFetchHooks(&myFetchHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
package observability

import (
	"context"
	"sync"
	"time"
)

// FetchHooks receives events from the HTTP fetch client.
type FetchHooks interface {
	// OnAttempt records one network attempt for a URL.
	OnAttempt(ctx context.Context, url string, attempt int)

	// OnResult records the outcome of a fetch call.
	OnResult(ctx context.Context, url string, duration time.Duration, err error)

	// OnStaleServed records a stale-cache fallback after exhausted retries.
	OnStaleServed(ctx context.Context, url string)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnHit records a fresh cache hit.
	OnHit(ctx context.Context, key string)

	// OnMiss records a cache miss or expired entry.
	OnMiss(ctx context.Context, key string)

	// OnSet records a cache write.
	OnSet(ctx context.Context, key string, size int)
}

// BatchHooks receives events from the batch scheduler.
type BatchHooks interface {
	// OnBatchStart records the start of one batch of units.
	OnBatchStart(ctx context.Context, batch, size int)

	// OnUnitDone records the completion of one unit of work.
	OnUnitDone(ctx context.Context, index int, duration time.Duration, err error)
}

// NoopFetchHooks is a no-op implementation of FetchHooks.
type NoopFetchHooks struct{}

func (NoopFetchHooks) OnAttempt(context.Context, string, int) {}

func (NoopFetchHooks) OnResult(context.Context, string, time.Duration, error) {}

func (NoopFetchHooks) OnStaleServed(context.Context, string) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnHit(context.Context, string) {}

func (NoopCacheHooks) OnMiss(context.Context, string) {}

func (NoopCacheHooks) OnSet(context.Context, string, int) {}

// NoopBatchHooks is a no-op implementation of BatchHooks.
type NoopBatchHooks struct{}

func (NoopBatchHooks) OnBatchStart(context.Context, int, int) {}

func (NoopBatchHooks) OnUnitDone(context.Context, int, time.Duration, error) {}

var (
	fetchHooks FetchHooks = NoopFetchHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	batchHooks BatchHooks = NoopBatchHooks{}
	hooksMu    sync.RWMutex
)

// SetFetchHooks registers custom fetch hooks.
// This should be called once at application startup.
func SetFetchHooks(h FetchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		fetchHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetBatchHooks registers custom batch hooks.
// This should be called once at application startup.
func SetBatchHooks(h BatchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		batchHooks = h
	}
}

// Fetch returns the registered fetch hooks.
func Fetch() FetchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return fetchHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Batch returns the registered batch hooks.
func Batch() BatchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return batchHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	fetchHooks = NoopFetchHooks{}
	cacheHooks = NoopCacheHooks{}
	batchHooks = NoopBatchHooks{}
}
