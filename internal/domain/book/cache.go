package book

import "time"

// Cache holds catalog search results keyed by normalized query.
type Cache interface {
	Get(query string) ([]SearchResult, bool)
	Set(query string, results []SearchResult, ttl time.Duration)
}

type noopCache struct{}

func (noopCache) Get(string) ([]SearchResult, bool) {
	return nil, false
}

func (noopCache) Set(string, []SearchResult, time.Duration) {}
