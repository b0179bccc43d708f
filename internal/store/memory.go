package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of the Store interface.
// It uses a map for storage and RWMutex for thread-safe concurrent access.
// This implementation is suitable for development, testing, or single-instance deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	rulesets map[recordKey]Record
}

type recordKey struct {
	service string
	env     string
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rulesets: make(map[recordKey]Record),
	}
}

// GetAll retrieves all rulesets for the given environment.
func (m *MemoryStore) GetAll(ctx context.Context, env string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Record, 0, len(m.rulesets))
	for _, rec := range m.rulesets {
		if rec.Env == env {
			result = append(result, rec)
		}
	}
	return result, nil
}

// GetByService retrieves the ruleset registered for a service.
func (m *MemoryStore) GetByService(ctx context.Context, service, env string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, exists := m.rulesets[recordKey{service, env}]
	if !exists {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// Upsert creates or updates a ruleset in memory.
func (m *MemoryStore) Upsert(ctx context.Context, params UpsertParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := make([]byte, len(params.Document))
	copy(doc, params.Document)

	m.rulesets[recordKey{params.Service, params.Env}] = Record{
		Service:   params.Service,
		Env:       params.Env,
		Document:  doc,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

// Delete removes a ruleset from memory.
func (m *MemoryStore) Delete(ctx context.Context, service, env string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.rulesets, recordKey{service, env})
	return nil
}

// Close is a no-op for MemoryStore as there are no resources to release.
func (m *MemoryStore) Close() error {
	return nil
}
