// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package regions

import (
	"context"
	"log/slog"
	"time"

	"fibersite/internal/access"
)

// DefaultFetchTimeout bounds how long hydration waits on the remote
// content fetch before rendering defaults. A soft deadline: the underlying
// request is not cancelled, its late result is simply discarded.
const DefaultFetchTimeout = 3 * time.Second

// Fetcher retrieves a page's saved content map. Implemented by
// content.Service; any error (including its no-content sentinel) means
// "no remote content" to the hydrator.
type Fetcher interface {
	GetPageContent(ctx context.Context, pagePath string, id *access.Identity) (map[string]string, error)
}

// Fallback is the locally cached content map consulted when the remote
// fetch fails or times out. Implemented by cache.ContentCache.
type Fallback interface {
	GetContentMap(ctx context.Context, pagePath string) (map[string]string, bool)
}

// Hydrator loads saved content into a page's registry on mount.
type Hydrator struct {
	fetcher  Fetcher
	fallback Fallback
	timeout  time.Duration
}

// NewHydrator creates a hydrator. fallback may be nil when no cache is
// configured. A zero timeout uses DefaultFetchTimeout.
func NewHydrator(fetcher Fetcher, fallback Fallback, timeout time.Duration) *Hydrator {
	if timeout == 0 {
		timeout = DefaultFetchTimeout
	}
	return &Hydrator{fetcher: fetcher, fallback: fallback, timeout: timeout}
}

type fetchResult struct {
	content map[string]string
	err     error
}

// Hydrate applies saved content onto the registry, at most once per
// registry — a second call is a no-op so re-renders never clobber
// in-progress edits. Precedence: remote value, then cached value, then
// the region's static default (by leaving it untouched). Hydration never
// fails: a slow or broken remote degrades to defaults, never to an error.
func (h *Hydrator) Hydrate(ctx context.Context, reg *Registry, id *access.Identity) {
	if !reg.markHydrated() {
		return
	}

	// Buffered so the fetch goroutine never blocks after we stop waiting.
	ch := make(chan fetchResult, 1)
	go func() {
		content, err := h.fetcher.GetPageContent(ctx, reg.Page(), id)
		ch <- fetchResult{content: content, err: err}
	}()

	timer := time.NewTimer(h.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.err == nil {
			reg.Apply(res.content)
			return
		}
		slog.Debug("hydration fetch returned no remote content",
			"page", reg.Page(), "error", res.err)
	case <-timer.C:
		slog.Warn("hydration fetch timed out, using fallback",
			"page", reg.Page(), "timeout", h.timeout)
	case <-ctx.Done():
		slog.Debug("hydration cancelled", "page", reg.Page())
	}

	if h.fallback == nil {
		return
	}
	if cached, ok := h.fallback.GetContentMap(ctx, reg.Page()); ok {
		reg.Apply(cached)
	}
}
