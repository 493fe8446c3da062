package resolver

import (
	"strings"
	"sync"
	"time"
)

type cacheEntry[T any] struct {
	value    T
	storedAt time.Time
	forms    []string
}

// cache is a time-stamped map. Entries are checked for expiry on read; no
// background sweep runs.
type cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry[T]
}

func newCache[T any]() *cache[T] {
	return &cache[T]{entries: make(map[string]cacheEntry[T])}
}

func (c *cache[T]) get(key string, now time.Time, ttl time.Duration) (T, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || now.Sub(entry.storedAt) >= ttl {
		var zero T
		return zero, false
	}
	return entry.value, true
}

func (c *cache[T]) put(key string, value T, now time.Time, forms ...string) {
	c.mu.Lock()
	c.entries[key] = cacheEntry[T]{value: value, storedAt: now, forms: forms}
	c.mu.Unlock()
}

// invalidate drops every entry computed from formID and returns how many
// were removed.
func (c *cache[T]) invalidate(formID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, entry := range c.entries {
		for _, form := range entry.forms {
			if form == formID {
				delete(c.entries, key)
				removed++
				break
			}
		}
	}
	return removed
}

func (c *cache[T]) clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry[T])
	c.mu.Unlock()
}

func (c *cache[T]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cacheKey(parts ...string) string {
	return strings.Join(parts, "|")
}
