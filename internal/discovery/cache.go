package discovery

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a discovery result stays valid.
const DefaultCacheTTL = 5 * time.Second

// Cache holds discovery results with a timestamp per entry.
// Entries older than the TTL are ignored and refreshed on the next lookup.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	files     []string
	timestamp time.Time
}

// NewCache creates a cache; a non-positive ttl uses DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns a copy of the cached files for key if the entry is still fresh.
func (c *Cache) Get(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.timestamp) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return append([]string(nil), entry.files...), true
}

// Put stores files under key, stamped with the current time.
func (c *Cache) Put(key string, files []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		files:     append([]string(nil), files...),
		timestamp: c.now(),
	}
}

// Invalidate drops every entry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cacheKey(baseDir string, patterns []string, recursive bool) string {
	return baseDir + "\x00" + strings.Join(patterns, "\x00") + "\x00" + strconv.FormatBool(recursive)
}
