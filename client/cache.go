package client

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// Entry is one cached upstream payload. Entries are immutable after
// creation: expiry replaces them, it never mutates them in place.
type Entry struct {
	Value    []byte
	Status   int
	StoredAt time.Time
	TTL      time.Duration
}

// Expired reports whether the entry is stale at the given instant.
func (e *Entry) Expired(now time.Time) bool {
	return now.Sub(e.StoredAt) >= e.TTL
}

// Cache stores upstream responses keyed by descriptor fingerprint.
// Implementations must be safe for concurrent use. Get returns
// ErrCacheMiss for absent or expired keys; any other error means the
// store is unavailable, which the client degrades to a miss.
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry) error
	Delete(ctx context.Context, key string) error
}

const numShards = 16

// MemoryCache is a sharded in-process Cache with lazy TTL eviction and
// a per-cache entry cap. When the cap is reached the entry with the
// oldest StoredAt is evicted first.
type MemoryCache struct {
	shards     [numShards]*cacheShard
	maxEntries int

	janitorStop chan struct{}
	janitorOnce sync.Once
	stopOnce    sync.Once
}

type cacheShard struct {
	mu    sync.RWMutex
	store map[string]*Entry
}

// NewMemoryCache creates an in-memory cache holding at most maxEntries
// entries. maxEntries <= 0 disables the cap.
func NewMemoryCache(maxEntries int) *MemoryCache {
	c := &MemoryCache{maxEntries: maxEntries}
	for i := range c.shards {
		c.shards[i] = &cacheShard{store: make(map[string]*Entry)}
	}
	return c
}

func (c *MemoryCache) shard(key string) *cacheShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()%numShards]
}

// Get returns the entry for key, treating expired entries as misses
// and deleting them on the way out.
func (c *MemoryCache) Get(_ context.Context, key string) (*Entry, error) {
	shard := c.shard(key)

	shard.mu.RLock()
	entry, ok := shard.store[key]
	shard.mu.RUnlock()
	if !ok {
		return nil, ErrCacheMiss
	}

	if entry.Expired(time.Now()) {
		shard.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have
		// replaced the entry with a fresh one.
		if current, ok := shard.store[key]; ok && current == entry {
			delete(shard.store, key)
		}
		shard.mu.Unlock()
		return nil, ErrCacheMiss
	}

	return entry, nil
}

// Set stores entry under key, evicting the oldest entry first when the
// cache is at capacity. Under concurrent Sets the cap is approximate.
func (c *MemoryCache) Set(_ context.Context, key string, entry *Entry) error {
	shard := c.shard(key)

	if c.maxEntries > 0 {
		shard.mu.RLock()
		_, exists := shard.store[key]
		shard.mu.RUnlock()
		if !exists && c.len() >= c.maxEntries {
			c.evictOldest()
		}
	}

	shard.mu.Lock()
	shard.store[key] = entry
	shard.mu.Unlock()
	return nil
}

// Delete removes key from the cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	shard := c.shard(key)
	shard.mu.Lock()
	delete(shard.store, key)
	shard.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	return c.len()
}

func (c *MemoryCache) len() int {
	total := 0
	for _, shard := range c.shards {
		shard.mu.RLock()
		total += len(shard.store)
		shard.mu.RUnlock()
	}
	return total
}

// Sweep physically removes expired entries. Expiry is already enforced
// lazily by Get; sweeping only reclaims memory earlier.
func (c *MemoryCache) Sweep() {
	now := time.Now()
	for _, shard := range c.shards {
		shard.mu.Lock()
		for key, entry := range shard.store {
			if entry.Expired(now) {
				delete(shard.store, key)
			}
		}
		shard.mu.Unlock()
	}
}

// StartJanitor sweeps the cache every interval until StopJanitor is
// called. Safe to call at most once.
func (c *MemoryCache) StartJanitor(interval time.Duration) {
	c.janitorOnce.Do(func() {
		c.janitorStop = make(chan struct{})
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					c.Sweep()
				case <-c.janitorStop:
					return
				}
			}
		}()
	})
}

// StopJanitor stops the background sweep goroutine. Idempotent.
func (c *MemoryCache) StopJanitor() {
	c.stopOnce.Do(func() {
		if c.janitorStop != nil {
			close(c.janitorStop)
		}
	})
}

// evictOldest removes the entry with the oldest StoredAt across all
// shards. Shards are locked one at a time, so a concurrent Set may
// slip in between the scan and the delete; the cap tolerates that.
func (c *MemoryCache) evictOldest() {
	var oldestShard *cacheShard
	var oldestKey string
	var oldestAt time.Time

	for _, shard := range c.shards {
		shard.mu.RLock()
		for key, entry := range shard.store {
			if oldestShard == nil || entry.StoredAt.Before(oldestAt) {
				oldestShard = shard
				oldestKey = key
				oldestAt = entry.StoredAt
			}
		}
		shard.mu.RUnlock()
	}

	if oldestShard != nil {
		oldestShard.mu.Lock()
		if entry, ok := oldestShard.store[oldestKey]; ok && entry.StoredAt.Equal(oldestAt) {
			delete(oldestShard.store, oldestKey)
		}
		oldestShard.mu.Unlock()
	}
}
