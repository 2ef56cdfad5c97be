// Package pwcache implements the C5 password cache: an in-memory,
// mutex-protected cache of keyring-fetched secrets, zeroed on Close.
// Grounded on original_source/cuba-lib/src/core/password_cache.rs, whose
// HashMap cache and Drop-triggered zeroize become an explicit Close here —
// Go has no deterministic destructor.
package pwcache

import (
	"sync"

	"github.com/zarniwp/cuba-go/internal/secret"
)

// Cache fronts a secret.Store, caching each password id's value after its
// first lookup.
type Cache struct {
	mu    sync.Mutex
	store secret.Store
	cache map[string][]byte
}

func New(store secret.Store) *Cache {
	return &Cache{store: store, cache: make(map[string][]byte)}
}

// Get returns the password for id, fetching from the store and caching it
// on first access.
func (c *Cache) Get(id string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.cache[id]; ok {
		return string(v), nil
	}
	v, err := c.store.Get(id)
	if err != nil {
		return "", err
	}
	c.cache[id] = []byte(v)
	return v, nil
}

// Clear zeroes and drops every cached entry. Safe to call multiple times.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, v := range c.cache {
		for i := range v {
			v[i] = 0
		}
		delete(c.cache, id)
	}
}

// Close is the explicit equivalent of the Rust cache's Drop impl: it must
// be called (typically via defer) once the cache is no longer needed so
// secrets don't linger in memory.
func (c *Cache) Close() error {
	c.Clear()
	return nil
}
