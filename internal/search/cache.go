package search

import (
	"container/list"
	"sync"

	"github.com/hyperjump/icdlookup/internal/models"
)

// ResultCache is an LRU cache of search responses keyed by normalized request.
// A nil *ResultCache is valid and caches nothing.
type ResultCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	value *models.SearchResponse
}

// NewResultCache creates a cache holding up to capacity responses. A capacity
// of zero or less returns nil, which disables caching.
func NewResultCache(capacity int) *ResultCache {
	if capacity <= 0 {
		return nil
	}
	return &ResultCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns a copy of the cached response for key if present.
func (c *ResultCache) Get(key string) (*models.SearchResponse, bool) {
	if c == nil {
		return nil, false
	}
	// MoveToFront mutates the list, so reads take the write lock too.
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return cloneResponse(elem.Value.(*cacheEntry).value), true
	}
	return nil, false
}

// Set stores a copy of resp for key, evicting the least recently used entry if at capacity.
func (c *ResultCache) Set(key string, resp *models.SearchResponse) {
	if c == nil {
		return
	}
	resp = cloneResponse(resp)
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = resp
		return
	}

	elem := c.lru.PushFront(&cacheEntry{key: key, value: resp})
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		if oldest := c.lru.Back(); oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len returns the number of cached responses.
func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func cloneResponse(resp *models.SearchResponse) *models.SearchResponse {
	out := *resp
	out.Results = make([]*models.SearchResult, len(resp.Results))
	for i, r := range resp.Results {
		cp := *r
		out.Results[i] = &cp
	}
	if resp.Suggestions != nil {
		out.Suggestions = append([]string(nil), resp.Suggestions...)
	}
	return &out
}
