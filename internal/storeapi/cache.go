package storeapi

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"storefront-engine/internal/model"
)

// DefaultCacheTTL is used when the storefront sends no cache headers.
const DefaultCacheTTL = 60 * time.Second

// DefaultCacheEntries limits the number of cached products (LRU eviction).
const DefaultCacheEntries = 500

// CacheConfig controls the product snapshot cache.
type CacheConfig struct {
	TTL        time.Duration // Default TTL when not specified by cache headers
	MaxEntries int           // Max cached products (0 = default)
	Disabled   bool
}

// productCache holds catalog snapshots keyed by handle.
// Honors Cache-Control max-age and Expires; stale entries keep their ETag
// so the next fetch can revalidate with If-None-Match.
type productCache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	accessList []string // LRU tracking: most recent at end
	config     CacheConfig
	now        func() time.Time
}

type cacheEntry struct {
	product   *model.Product
	expiresAt time.Time
	etag      string
}

func newProductCache(config CacheConfig) *productCache {
	if config.TTL == 0 {
		config.TTL = DefaultCacheTTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultCacheEntries
	}
	return &productCache{
		entries:    make(map[string]*cacheEntry),
		accessList: make([]string, 0, config.MaxEntries),
		config:     config,
		now:        time.Now,
	}
}

// get returns the cached entry for handle (possibly stale) and whether it is
// still fresh. A nil entry means nothing is cached.
func (c *productCache) get(handle string) (*cacheEntry, bool) {
	if c.config.Disabled {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[handle]
	if !ok {
		return nil, false
	}
	c.touchLocked(handle)
	return entry, entry.expiresAt.After(c.now())
}

func (c *productCache) put(handle string, p *model.Product, resp *http.Response) {
	if c.config.Disabled {
		return
	}
	entry := &cacheEntry{
		product:   p,
		expiresAt: c.now().Add(c.ttl(resp)),
		etag:      resp.Header.Get("ETag"),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[handle]; !exists && len(c.entries) >= c.config.MaxEntries {
		c.evictOldestLocked()
	}
	c.entries[handle] = entry
	c.touchLocked(handle)
}

func (c *productCache) remove(handle string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[handle]; !ok {
		return
	}
	delete(c.entries, handle)
	c.dropAccessLocked(handle)
}

func (c *productCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// ttl extracts the freshness lifetime from response headers.
// Priority: no-store/no-cache, max-age, Expires, then the default.
func (c *productCache) ttl(resp *http.Response) time.Duration {
	if cc := resp.Header.Get("Cache-Control"); cc != "" {
		for _, directive := range strings.Split(cc, ",") {
			directive = strings.TrimSpace(directive)
			switch {
			case directive == "no-store" || directive == "no-cache":
				return 0
			case strings.HasPrefix(directive, "max-age="):
				if seconds, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age=")); err == nil && seconds >= 0 {
					return time.Duration(seconds) * time.Second
				}
			}
		}
	}

	if expires := resp.Header.Get("Expires"); expires != "" {
		if t, err := http.ParseTime(expires); err == nil {
			if ttl := t.Sub(c.now()); ttl > 0 {
				return ttl
			}
		}
	}

	return c.config.TTL
}

func (c *productCache) touchLocked(handle string) {
	c.dropAccessLocked(handle)
	c.accessList = append(c.accessList, handle)
}

func (c *productCache) dropAccessLocked(handle string) {
	for i, h := range c.accessList {
		if h == handle {
			c.accessList = append(c.accessList[:i], c.accessList[i+1:]...)
			return
		}
	}
}

func (c *productCache) evictOldestLocked() {
	if len(c.accessList) == 0 {
		return
	}
	oldest := c.accessList[0]
	c.accessList = c.accessList[1:]
	delete(c.entries, oldest)
}
