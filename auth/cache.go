package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	goredis "github.com/redis/go-redis/v9"
)

// CacheEntry is the per-user freshness record: the credential fingerprint
// last written by a verification or bootstrap, and when it was written.
// LastSeen zero marks a bootstrap entry that has never been verified.
type CacheEntry struct {
	Fingerprint string
	LastSeen    int64 // unix seconds
}

// CacheStore holds at most one CacheEntry per user key. Get returns
// (nil, nil) when no entry exists; entries are overwritten, never deleted.
type CacheStore interface {
	Get(ctx context.Context, externalID int64) (*CacheEntry, error)
	Put(ctx context.Context, externalID int64, entry CacheEntry) error
}

// RedisCache keeps entries as hashes under "auth_hash:<external id>" with
// fields "hash" and "last_seen".
type RedisCache struct {
	client *goredis.Client
}

func NewRedisCache(client *goredis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func cacheKey(externalID int64) string { return fmt.Sprintf("auth_hash:%d", externalID) }

func (c *RedisCache) Get(ctx context.Context, externalID int64) (*CacheEntry, error) {
	fields, err := c.client.HGetAll(ctx, cacheKey(externalID)).Result()
	if err != nil {
		return nil, fmt.Errorf("auth: cache get %d: %w", externalID, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	lastSeen, _ := strconv.ParseInt(fields["last_seen"], 10, 64)
	return &CacheEntry{Fingerprint: fields["hash"], LastSeen: lastSeen}, nil
}

func (c *RedisCache) Put(ctx context.Context, externalID int64, entry CacheEntry) error {
	err := c.client.HSet(ctx, cacheKey(externalID),
		"hash", entry.Fingerprint,
		"last_seen", strconv.FormatInt(entry.LastSeen, 10),
	).Err()
	if err != nil {
		return fmt.Errorf("auth: cache put %d: %w", externalID, err)
	}
	return nil
}

// MemoryCache is an in-process CacheStore for tests.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[int64]CacheEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[int64]CacheEntry)}
}

func (c *MemoryCache) Get(_ context.Context, externalID int64) (*CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[externalID]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (c *MemoryCache) Put(_ context.Context, externalID int64, entry CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[externalID] = entry
	return nil
}
