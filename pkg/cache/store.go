// Package cache provides content-addressed payload stores with TTL-based
// validity for fetched HTTP responses.
//
// Keys are derived from normalized request URLs (see [Key]), so repeated
// requests for the same logical resource always hit the same entry. Three
// backends implement [Store]:
//
//   - [FileStore]: one file per entry under a cache directory, atomic writes
//   - [RedisStore]: shared cache for multi-machine deployments
//   - [NullStore]: caching disabled
//
// A store distinguishes three read outcomes: hit, miss, and expired. Expired
// entries are still retrievable through GetStale, which the fetch layer uses
// as a last resort after all network retries are exhausted.
package cache

import (
	"context"
	"errors"
)

// ErrExpired is returned by Get when an entry exists but has exceeded its
// time-to-live. The payload is still on disk and retrievable via GetStale.
//
// Use errors.Is to check for this error:
//
//	data, ok, err := store.Get(ctx, key)
//	if errors.Is(err, cache.ErrExpired) {
//	    // Fetch fresh data; fall back to GetStale if that fails.
//	}
var ErrExpired = errors.New("cache entry expired")

// Store is the payload cache used by the fetch client.
//
// Implementations must tolerate concurrent writers to the same key: the
// last complete write wins and readers never observe a partial payload.
type Store interface {
	// Get returns the payload for key if present and fresh.
	// Outcomes: (data, true, nil) hit; (nil, false, nil) miss;
	// (nil, false, ErrExpired) entry exists but is stale.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// GetStale returns the payload for key regardless of age.
	// Returns (nil, false, nil) only when no entry exists at all.
	GetStale(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores the payload under key, resetting its age. Failures are
	// reported but callers treat them as non-fatal: a fetched payload is
	// still useful without caching.
	Set(ctx context.Context, key string, data []byte) error

	// Delete removes the entry for key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store.
	Close() error
}
