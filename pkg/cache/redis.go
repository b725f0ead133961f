package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// staleFactor controls how long a Redis entry outlives its freshness window
// so that GetStale can still serve it. An entry expires from Redis entirely
// after staleFactor * TTL.
const staleFactor = 8

// RedisStore backs the cache with a Redis server, letting several machines
// share one cache. Entries carry their write timestamp so freshness is
// computed client-side with the same semantics as [FileStore]; the Redis
// expiry is set well past the TTL to keep stale payloads available for the
// stale-fallback path.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// redisEntry wraps a payload with its write timestamp.
type redisEntry struct {
	Data     []byte    `json:"data"`
	StoredAt time.Time `json:"stored_at"`
}

// NewRedisStore connects to the Redis instance described by rawURL
// (redis://host:port/db) and returns a store with the given TTL.
// A TTL of 0 means entries never expire.
func NewRedisStore(rawURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return &RedisStore{
		client: redis.NewClient(opts),
		ttl:    ttl,
		prefix: "relnotes:",
	}, nil
}

// Get returns the payload for key if present and fresh.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, ok, err := s.load(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	if s.ttl > 0 && time.Since(entry.StoredAt) > s.ttl {
		return nil, false, ErrExpired
	}
	return entry.Data, true, nil
}

// GetStale returns the payload for key regardless of age, as long as Redis
// still holds it.
func (s *RedisStore) GetStale(ctx context.Context, key string) ([]byte, bool, error) {
	entry, ok, err := s.load(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	return entry.Data, true, nil
}

// Set stores the payload under key with a fresh timestamp.
func (s *RedisStore) Set(ctx context.Context, key string, data []byte) error {
	raw, err := json.Marshal(redisEntry{Data: data, StoredAt: time.Now()})
	if err != nil {
		return err
	}
	var expiry time.Duration
	if s.ttl > 0 {
		expiry = s.ttl * staleFactor
	}
	return s.client.Set(ctx, s.prefix+key, raw, expiry).Err()
}

// Delete removes the entry for key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Close closes the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) load(ctx context.Context, key string) (redisEntry, bool, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err == redis.Nil {
		return redisEntry{}, false, nil
	}
	if err != nil {
		return redisEntry{}, false, err
	}
	var entry redisEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Corrupt entry: treat as miss and drop it.
		_ = s.client.Del(ctx, s.prefix+key).Err()
		return redisEntry{}, false, nil
	}
	return entry, true, nil
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
