package session

import (
	"context"
	"sync"

	"absensi/internal/model"

	"github.com/google/uuid"
)

// Cache holds the profile last fetched for a session. Get never reads the
// profile store; the caller fills the cache on a miss. Entries have no
// freshness TTL: a cached role stays until the session is cleared.
type Cache interface {
	Get(ctx context.Context, sessionID uuid.UUID) (*model.Profile, bool, error)
	Set(ctx context.Context, sessionID uuid.UUID, profile *model.Profile) error
	Clear(ctx context.Context, sessionID uuid.UUID) error
}

// MemoryCache is a process-local Cache
type MemoryCache struct {
	mu    sync.RWMutex
	items map[uuid.UUID]model.Profile
}

// NewMemoryCache creates an empty cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: map[uuid.UUID]model.Profile{}}
}

func (c *MemoryCache) Get(_ context.Context, sessionID uuid.UUID) (*model.Profile, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.items[sessionID]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

func (c *MemoryCache) Set(_ context.Context, sessionID uuid.UUID, profile *model.Profile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[sessionID] = *profile
	return nil
}

func (c *MemoryCache) Clear(_ context.Context, sessionID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, sessionID)
	return nil
}

// Len returns the number of cached sessions
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
