package app

import (
	"context"
	"sync"

	"github.com/joacominatel/dbcnx/internal/config"
	"github.com/joacominatel/dbcnx/internal/database"
)

// Registry keeps at most one PoolManager per connection target. Construct
// one in main and pass it to every consumer that needs a shared pool.
type Registry struct {
	driver   database.Driver
	opts     []Option
	mu       sync.Mutex
	managers map[string]*PoolManager
}

// NewRegistry creates a registry whose pools are opened with driver.
func NewRegistry(driver database.Driver, opts ...Option) *Registry {
	return &Registry{
		driver:   driver,
		opts:     opts,
		managers: make(map[string]*PoolManager),
	}
}

// PoolManager returns the manager for setup's target, creating it on first
// use. Later calls reuse the first manager and ignore their own size.
func (r *Registry) PoolManager(ctx context.Context, setup config.Setup, size int) *PoolManager {
	key := r.driver.Name() + "|" + setup.Connection().Identity()

	// Held across construction so concurrent first calls open one pool.
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.managers[key]; ok {
		if m.Size() != size {
			m.runner.log.Debug("reusing session pool", "size", m.Size(), "requested_size", size)
		}
		return m
	}

	m := NewPoolManager(ctx, r.driver, setup, size, r.opts...)
	r.managers[key] = m
	return m
}

// Len returns the number of managers held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.managers)
}

// Close closes every pool and empties the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.managers {
		m.Close()
	}
	r.managers = make(map[string]*PoolManager)
}
