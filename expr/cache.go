package expr

import (
	"sync"
	"time"
)

// ProgramCache stores compiled programs keyed by expression text
// This allows swapping the in-memory cache for a shared one
type ProgramCache interface {
	// Get returns the cached program, false on miss or expiry
	Get(expression string) (*Program, bool)

	// Set stores a compiled program
	Set(expression string, prog *Program)

	// Invalidate drops every cached program
	Invalidate()

	// Len reports the number of live entries
	Len() int
}

// CacheConfig holds configuration for cache behavior
type CacheConfig struct {
	// TTL is the time-to-live for cached entries
	// Set to 0 for no expiration (manual invalidation only)
	TTL time.Duration

	// MaxEntries bounds the cache; 0 means unbounded.
	// When full, the cache is cleared before inserting.
	MaxEntries int
}

// DefaultCacheConfig returns the defaults used by NewCompiler
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:        0,
		MaxEntries: 4096,
	}
}

type cacheEntry struct {
	prog     *Program
	cachedAt time.Time
}

// InMemoryProgramCache is a map-backed ProgramCache
// Thread-safe for concurrent access
type InMemoryProgramCache struct {
	entries map[string]cacheEntry
	config  CacheConfig
	mu      sync.RWMutex
}

// NewInMemoryProgramCache creates a new in-memory program cache
func NewInMemoryProgramCache(config CacheConfig) *InMemoryProgramCache {
	return &InMemoryProgramCache{
		entries: make(map[string]cacheEntry),
		config:  config,
	}
}

// Get retrieves a cached program
func (c *InMemoryProgramCache) Get(expression string) (*Program, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[expression]
	if !ok {
		return nil, false
	}

	if c.config.TTL > 0 && time.Since(entry.cachedAt) > c.config.TTL {
		return nil, false
	}

	return entry.prog, true
}

// Set stores a program in the cache
func (c *InMemoryProgramCache) Set(expression string, prog *Program) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.config.MaxEntries > 0 && len(c.entries) >= c.config.MaxEntries {
		c.entries = make(map[string]cacheEntry)
	}

	c.entries[expression] = cacheEntry{prog: prog, cachedAt: time.Now()}
}

// Invalidate clears the cache
func (c *InMemoryProgramCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of entries that have not expired
func (c *InMemoryProgramCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.config.TTL == 0 {
		return len(c.entries)
	}

	n := 0
	for _, entry := range c.entries {
		if time.Since(entry.cachedAt) <= c.config.TTL {
			n++
		}
	}
	return n
}
