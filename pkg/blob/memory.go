package blob

import (
	"context"
	"fmt"
	"sync"
)

// MemStore is an in-memory Store for tests and dev runs.
type MemStore struct {
	mu      sync.RWMutex
	objects map[Location][]byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[Location][]byte)}
}

// Write implements Store.
func (s *MemStore) Write(ctx context.Context, zone, key string, data []byte) (Location, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if zone == "" || key == "" {
		return "", fmt.Errorf("%w: zone and key are required", ErrWrite)
	}
	loc := Location("mem://" + zone + "/" + key)
	copied := make([]byte, len(data))
	copy(copied, data)
	s.mu.Lock()
	s.objects[loc] = copied
	s.mu.Unlock()
	return loc, nil
}

// Read implements Store.
func (s *MemStore) Read(ctx context.Context, loc Location) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	s.mu.RLock()
	data, ok := s.objects[loc]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s: not found", ErrRead, loc)
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

// Len reports how many objects the store holds.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
