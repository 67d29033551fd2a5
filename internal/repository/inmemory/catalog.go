package inmemory

import (
	"sync"
	"time"

	bookdomain "booknook-go/internal/domain/book"
)

// CatalogCache is a TTL cache for book search results.
type CatalogCache struct {
	mu    sync.RWMutex
	items map[string]catalogItem
	now   func() time.Time
}

type catalogItem struct {
	results   []bookdomain.SearchResult
	expiresAt time.Time
}

func NewCatalogCache() *CatalogCache {
	return &CatalogCache{
		items: make(map[string]catalogItem),
		now:   time.Now,
	}
}

func (c *CatalogCache) Get(query string) ([]bookdomain.SearchResult, bool) {
	now := c.now()

	c.mu.RLock()
	item, ok := c.items[query]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[query]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, query)
		}
		c.mu.Unlock()
		return nil, false
	}

	return cloneResults(item.results), true
}

func (c *CatalogCache) Set(query string, results []bookdomain.SearchResult, ttl time.Duration) {
	if ttl <= 0 {
		c.Delete(query)
		return
	}

	c.mu.Lock()
	c.items[query] = catalogItem{
		results:   cloneResults(results),
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
}

func (c *CatalogCache) Delete(query string) {
	c.mu.Lock()
	delete(c.items, query)
	c.mu.Unlock()
}

func (c *CatalogCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func cloneResults(results []bookdomain.SearchResult) []bookdomain.SearchResult {
	cloned := make([]bookdomain.SearchResult, len(results))
	for i, result := range results {
		cloned[i] = result
		if result.Authors != nil {
			cloned[i].Authors = append([]string(nil), result.Authors...)
		}
	}
	return cloned
}
