package agent

import (
	"sync"
	"time"
)

// cachedResponse holds one cached query answer
type cachedResponse struct {
	response *QueryResponse
	cachedAt time.Time
}

// ResponseCache provides TTL-based caching of synthesized responses. Keys
// are normalized before use; only non-degraded responses are cached.
type ResponseCache struct {
	cache map[string]*cachedResponse
	mu    sync.RWMutex
	ttl   time.Duration
	stop  chan struct{}
}

// NewResponseCache creates a cache with the specified TTL
func NewResponseCache(ttl time.Duration) *ResponseCache {
	c := &ResponseCache{
		cache: make(map[string]*cachedResponse),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Get retrieves a cached response if still valid
func (c *ResponseCache) Get(query string) (*QueryResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if entry, ok := c.cache[normalizeQuery(query)]; ok {
		if time.Since(entry.cachedAt) < c.ttl {
			return entry.response, true
		}
	}
	return nil, false
}

// Set stores a response in the cache
func (c *ResponseCache) Set(query string, resp *QueryResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[normalizeQuery(query)] = &cachedResponse{
		response: resp,
		cachedAt: time.Now(),
	}
}

// Close stops the background cleanup loop
func (c *ResponseCache) Close() {
	close(c.stop)
}

// cleanup removes expired entries periodically
func (c *ResponseCache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.cache {
				if now.Sub(entry.cachedAt) > c.ttl {
					delete(c.cache, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
