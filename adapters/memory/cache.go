package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/djmoore711/brandfetch-mcp/ports"
)

// Cache is an in-process TTL cache for lookup results. Entries are
// evicted lazily on read and by size when MaxEntries is exceeded
// (oldest-inserted first).
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front = oldest
	maxEntries int
	now        func() time.Time
}

type cacheEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// NewCache creates a cache holding at most maxEntries values.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Cache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the cached value for key, if present and unexpired.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.order.Remove(el)
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

// Set stores value under key for ttl. A non-positive ttl is ignored.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}

	for len(c.entries) >= c.maxEntries {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}

	el := c.order.PushBack(&cacheEntry{
		key:       key,
		value:     value,
		expiresAt: c.now().Add(ttl),
	})
	c.entries[key] = el
}

// Ensure interface compliance.
var _ ports.Cache = (*Cache)(nil)
