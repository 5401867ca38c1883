package httpclient

import (
	"sync"
	"time"

	"github.com/Ramsey-B/banyan/pkg/normalizers"
)

// Cache is a time-bounded response cache keyed by normalized URL. Like the
// rate limiter it is owned by one collection run and internally synchronized.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// NewCache creates a response cache with the given TTL. A non-positive TTL
// disables caching.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached response for a URL, or nil when absent or expired
func (c *Cache) Get(rawURL string) *Response {
	if c == nil || c.ttl <= 0 {
		return nil
	}

	key := normalizers.NormalizeURL(rawURL)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil
	}
	return entry.response
}

// Set stores a response for a URL
func (c *Cache) Set(rawURL string, resp *Response) {
	if c == nil || c.ttl <= 0 || resp == nil {
		return
	}

	key := normalizers.NormalizeURL(rawURL)
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Opportunistic pruning keeps the map bounded over a long run
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}

	c.entries[key] = cacheEntry{response: resp, expiresAt: now.Add(c.ttl)}
}
