package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Cache backed by Redis, for deployments that share
// one response cache between several server replicas. Redis expiry is
// set from the entry TTL, and Get re-checks staleness against StoredAt
// so a lagging server clock can never serve an entry past its TTL.
type RedisCache struct {
	rdb    redis.UniversalClient
	prefix string
}

type redisEntry struct {
	Value    []byte        `json:"value"`
	Status   int           `json:"status"`
	StoredAt time.Time     `json:"stored_at"`
	TTL      time.Duration `json:"ttl"`
}

// NewRedisCache wraps an existing Redis client. prefix namespaces the
// keys so unrelated services can share one Redis database.
func NewRedisCache(rdb redis.UniversalClient, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "mcp-services"
	}
	return &RedisCache{rdb: rdb, prefix: prefix}
}

func (c *RedisCache) key(key string) string {
	return c.prefix + ":" + key
}

// Get returns the entry for key, ErrCacheMiss when absent or expired.
func (c *RedisCache) Get(ctx context.Context, key string) (*Entry, error) {
	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, &Error{Kind: KindCache, Message: "redis get failed", Cause: err}
	}

	var stored redisEntry
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, &Error{Kind: KindCache, Message: "corrupt cache entry", Cause: err}
	}

	entry := &Entry{
		Value:    stored.Value,
		Status:   stored.Status,
		StoredAt: stored.StoredAt,
		TTL:      stored.TTL,
	}
	if entry.Expired(time.Now()) {
		return nil, ErrCacheMiss
	}
	return entry, nil
}

// Set stores entry under key with a Redis expiry matching its TTL.
func (c *RedisCache) Set(ctx context.Context, key string, entry *Entry) error {
	raw, err := json.Marshal(redisEntry{
		Value:    entry.Value,
		Status:   entry.Status,
		StoredAt: entry.StoredAt,
		TTL:      entry.TTL,
	})
	if err != nil {
		return &Error{Kind: KindCache, Message: "encode cache entry failed", Cause: err}
	}
	if err := c.rdb.Set(ctx, c.key(key), raw, entry.TTL).Err(); err != nil {
		return &Error{Kind: KindCache, Message: fmt.Sprintf("redis set %q failed", key), Cause: err}
	}
	return nil
}

// Delete removes key from Redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, c.key(key)).Err(); err != nil {
		return &Error{Kind: KindCache, Message: "redis delete failed", Cause: err}
	}
	return nil
}
