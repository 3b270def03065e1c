// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// content.go mirrors each page's latest visible content map into Valkey
// under the page_content key. The mirror is never a source of truth: it is
// a hydration fallback when the database is slow or unreachable, and the
// merge base before a save so regions absent from the current page are not
// dropped from the record.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// contentKeyPrefix namespaces page-content keys in Valkey.
	contentKeyPrefix = "page_content:"

	// DefaultContentTTL is how long a mirrored content map stays cached.
	// Long on purpose — stale fallback content beats a blank region.
	DefaultContentTTL = 24 * time.Hour
)

// ContentCache manages the page_content mirror in Valkey.
type ContentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewContentCache creates a content cache backed by the given Valkey client.
func NewContentCache(client *redis.Client, ttl time.Duration) *ContentCache {
	if ttl == 0 {
		ttl = DefaultContentTTL
	}
	return &ContentCache{client: client, ttl: ttl}
}

// GetContentMap retrieves the mirrored content map for a page.
// Returns (nil, false) on miss or error — callers fall back to defaults.
func (c *ContentCache) GetContentMap(ctx context.Context, pagePath string) (map[string]string, bool) {
	raw, err := c.client.Get(ctx, contentKeyPrefix+pagePath).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("content cache get error", "page", pagePath, "error", err)
		return nil, false
	}

	var content map[string]string
	if err := json.Unmarshal(raw, &content); err != nil {
		slog.Warn("content cache decode error", "page", pagePath, "error", err)
		return nil, false
	}
	return content, true
}

// SetContentMap stores the full content map for a page. Failures are
// logged and swallowed — the mirror is advisory.
func (c *ContentCache) SetContentMap(ctx context.Context, pagePath string, content map[string]string) {
	raw, err := json.Marshal(content)
	if err != nil {
		slog.Warn("content cache encode error", "page", pagePath, "error", err)
		return
	}
	if err := c.client.Set(ctx, contentKeyPrefix+pagePath, raw, c.ttl).Err(); err != nil {
		slog.Warn("content cache set error", "page", pagePath, "error", err)
	}
}

// Invalidate removes a page's mirrored content map.
func (c *ContentCache) Invalidate(ctx context.Context, pagePath string) {
	if err := c.client.Del(ctx, contentKeyPrefix+pagePath).Err(); err != nil {
		slog.Warn("content cache invalidate error", "page", pagePath, "error", err)
	}
}
