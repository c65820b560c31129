// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// CacheStats is a read-only snapshot of the AI suggestion cache counters.
type CacheStats struct {
	Hits   int `json:"hits" yaml:"hits"`
	Misses int `json:"misses" yaml:"misses"`
	Size   int `json:"size" yaml:"size"`
}

// suggestionCache stores AI suggestion results keyed by the exact residual
// query string. Entries live for the process lifetime; eviction is an
// explicit clear only. A singleflight group guarantees one in-flight AI
// call per key, so concurrent normalizations of the same uncached query
// share a single network call.
type suggestionCache struct {
	mu      sync.Mutex
	entries map[string][]string
	hits    int
	misses  int
	group   singleflight.Group
}

func newSuggestionCache() *suggestionCache {
	return &suggestionCache{entries: make(map[string][]string)}
}

// suggest returns the cached suggestion for query, or performs one shared
// AI call and caches its result. A cache hit never touches the network.
func (c *suggestionCache) suggest(ctx context.Context, ai Suggester, query string) ([]string, error) {
	c.mu.Lock()
	if cached, ok := c.entries[query]; ok {
		c.hits++
		c.mu.Unlock()
		return append([]string(nil), cached...), nil
	}
	c.misses++
	c.mu.Unlock()

	v, err, _ := c.group.Do(query, func() (interface{}, error) {
		suggested, err := ai.Suggest(ctx, query)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[query] = suggested
		c.mu.Unlock()
		return suggested, nil
	})
	if err != nil {
		return nil, err
	}
	suggested := v.([]string)
	return append([]string(nil), suggested...), nil
}

func (c *suggestionCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]string)
}

func (c *suggestionCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Size: len(c.entries)}
}
