// Package fetch - cache.go provides an in-memory page cache so concurrent
// research tasks hitting the same company pages fetch each URL once per run.
package fetch

import (
	"context"
	"sync"
	"time"
)

// CachedFetcher wraps URL fetching with a per-run in-memory cache keyed by
// URL. Safe for concurrent use; the first fetch of a URL populates the cache
// and later callers reuse it until the TTL expires.
type CachedFetcher struct {
	options *Options
	ttl     time.Duration

	mu    sync.Mutex
	pages map[string]cacheEntry
}

type cacheEntry struct {
	result    *Result
	fetchedAt time.Time
}

// DefaultCacheTTL bounds how long a cached page is reused within a run.
const DefaultCacheTTL = 15 * time.Minute

// NewCachedFetcher creates a cached fetcher. A non-positive ttl uses
// DefaultCacheTTL.
func NewCachedFetcher(opts *Options, ttl time.Duration) *CachedFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedFetcher{
		options: opts,
		ttl:     ttl,
		pages:   make(map[string]cacheEntry),
	}
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
}

// Fetch retrieves a URL, reusing a cached copy when one is fresh. Fetched
// pages have their main text extracted before caching.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	f.mu.Lock()
	if entry, ok := f.pages[urlStr]; ok && time.Since(entry.fetchedAt) < f.ttl {
		f.mu.Unlock()
		return &CachedResult{Result: entry.result, FromCache: true}, nil
	}
	f.mu.Unlock()

	result, err := URL(ctx, urlStr, f.options)
	if err != nil {
		return nil, err
	}

	text, _ := ExtractMainText(result.HTML, DefaultTextSelectors())
	result.Text = text

	f.mu.Lock()
	f.pages[urlStr] = cacheEntry{result: result, fetchedAt: time.Now()}
	f.mu.Unlock()

	return &CachedResult{Result: result, FromCache: false}, nil
}

// Invalidate drops a cached page, forcing a re-fetch on next request.
func (f *CachedFetcher) Invalidate(urlStr string) {
	f.mu.Lock()
	delete(f.pages, urlStr)
	f.mu.Unlock()
}
