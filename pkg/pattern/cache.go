package pattern

import (
	"sync"

	"github.com/workprice/workprice/models"
)

// Cache holds at most one live Compiled instance per config key, with
// get-or-build semantics. It is unbounded on purpose: the key space is
// bounded by user settings, not by input volume. Entries are evicted only by
// an explicit Clear.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Compiled
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Compiled)}
}

// Get returns the cached matcher for the config, building it on first use.
// Equal configs always yield the same instance.
func (c *Cache) Get(config models.CurrencyFormatConfig) (*Compiled, error) {
	key := config.CacheKey()

	c.mu.Lock()
	defer c.mu.Unlock()

	if compiled, ok := c.entries[key]; ok {
		return compiled, nil
	}

	compiled, err := Build(config)
	if err != nil {
		return nil, err
	}
	c.entries[key] = compiled
	return compiled, nil
}

// Clear evicts every cached pattern.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Compiled)
}

// Len reports the number of live compiled patterns.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
