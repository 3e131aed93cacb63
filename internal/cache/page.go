// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// page.go provides a Valkey-backed cache for rendered responses. Category
// pages and the category JSON are stored here so repeat requests skip the
// count query. A nil *PageCache is valid and always misses, which is how
// the server runs when no Valkey host is configured.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// pageKeyPrefix is the Valkey key prefix for cached responses.
	pageKeyPrefix = "rulehub:page:"

	// DefaultPageTTL is how long a response stays cached.
	DefaultPageTTL = time.Minute
)

// Keys for the cached responses.
const (
	KeyCategoriesPage = "categories"
	KeyCategoriesJSON = "api:categories"
)

// PageCache stores rendered responses in Valkey.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a new page cache backed by the given Valkey client.
// A nil client yields a nil cache.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Get retrieves a cached response. The second result is false on a miss,
// on a Valkey error and on a nil cache.
func (pc *PageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if pc == nil {
		return nil, false
	}
	val, err := pc.client.Get(ctx, pageKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("page cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("page cache hit", "key", key)
	return val, true
}

// Set stores a response with the configured TTL. Errors are logged, not
// returned: a failed write only costs a future miss.
func (pc *PageCache) Set(ctx context.Context, key string, body []byte) {
	if pc == nil {
		return
	}
	if err := pc.client.Set(ctx, pageKeyPrefix+key, body, pc.ttl).Err(); err != nil {
		slog.Warn("page cache set error", "key", key, "error", err)
	}
}

// GetJSON decodes a cached JSON value into v. It reports a miss when the
// key is absent or the stored bytes do not decode.
func (pc *PageCache) GetJSON(ctx context.Context, key string, v any) bool {
	data, ok := pc.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		slog.Warn("page cache decode error", "key", key, "error", err)
		return false
	}
	return true
}

// SetJSON encodes v and caches it.
func (pc *PageCache) SetJSON(ctx context.Context, key string, v any) {
	if pc == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("page cache encode error", "key", key, "error", err)
		return
	}
	pc.Set(ctx, key, data)
}

// InvalidateAll removes every cached response by scanning for the prefix.
// The server calls it at startup so a new deploy never serves stale counts.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	if pc == nil {
		return
	}
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := pc.client.Scan(ctx, cursor, pageKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("page cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("page cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("page cache cleared", "deleted", deleted)
	}
}

// CategoryPageKey returns the cache key for one category listing page.
func CategoryPageKey(slug string, page int) string {
	return "category:" + slug + ":" + strconv.Itoa(page)
}
