package objectstore

import (
	"context"
	"sync"
)

// Cache holds lazily constructed per-bucket Store clients, keyed by a
// caller-chosen id (the bucket config id). It replaces the usual
// module-level singleton map: the composition root constructs one Cache and
// injects it wherever stores are needed.
type Cache struct {
	factory *Factory

	mu     sync.Mutex
	stores map[string]Store
}

// NewCache creates a store cache backed by the given factory.
func NewCache(factory *Factory) *Cache {
	return &Cache{
		factory: factory,
		stores:  make(map[string]Store),
	}
}

// GetOrCreate returns the cached store for id, constructing it on first
// access. Construction happens inside the critical section so concurrent
// first access builds the client exactly once.
func (c *Cache) GetOrCreate(ctx context.Context, id string, config Config) (Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if store, ok := c.stores[id]; ok {
		return store, nil
	}

	store, err := c.factory.Create(ctx, config)
	if err != nil {
		return nil, err
	}
	c.stores[id] = store
	return store, nil
}

// Put inserts a pre-built store, replacing any cached one. Mainly used by
// tests to install fakes.
func (c *Cache) Put(id string, store Store) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stores[id] = store
}

// Forget drops the cached store for id, if any.
func (c *Cache) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stores, id)
}
