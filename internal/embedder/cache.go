package embedder

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache keeps recently generated vectors keyed by content hash. Re-ingesting
// an unchanged document or repeating a query skips the provider call.
type Cache struct {
	entries *lru.Cache[string, *Embedding]
	hits    atomic.Int64
	misses  atomic.Int64
}

// CacheStats reports lookups since the cache was created or last cleared
type CacheStats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// NewCache returns a cache holding at most size vectors (DefaultCacheSize when size <= 0)
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, *Embedding](size)
	if err != nil {
		// only reachable with a non-positive size, excluded above
		panic(err)
	}
	return &Cache{entries: entries}
}

// Get returns a private copy of the cached embedding for key
func (c *Cache) Get(key string) (*Embedding, bool) {
	emb, ok := c.entries.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return emb.clone(), true
}

// Set stores a copy of emb, evicting the least recently used entry when full
func (c *Cache) Set(key string, emb *Embedding) {
	c.entries.Add(key, emb.clone())
}

// Size returns the number of cached vectors
func (c *Cache) Size() int {
	return c.entries.Len()
}

// Stats returns entry and lookup counters
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Entries: c.entries.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

// Clear drops every entry and resets the counters
func (c *Cache) Clear() {
	c.entries.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
}

func (e *Embedding) clone() *Embedding {
	out := *e
	out.Vector = append([]float32(nil), e.Vector...)
	return &out
}

// CacheStatsOf reports the cache counters of e when it was built with a cache
func CacheStatsOf(e Embedder) (CacheStats, bool) {
	cached, ok := e.(interface{ Cache() *Cache })
	if !ok || cached.Cache() == nil {
		return CacheStats{}, false
	}
	return cached.Cache().Stats(), true
}
