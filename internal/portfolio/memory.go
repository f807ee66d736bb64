package portfolio

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
)

// MemoryStore keeps saved properties in process.
type MemoryStore struct {
	mu         sync.RWMutex
	properties map[string]SavedProperty
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{properties: make(map[string]SavedProperty)}
}

// Save inserts or replaces p.
func (m *MemoryStore) Save(_ context.Context, p SavedProperty) error {
	if err := validateID(p.ID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.properties[p.ID] = p
	return nil
}

// List returns every property, oldest first.
func (m *MemoryStore) List(_ context.Context) ([]SavedProperty, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]SavedProperty, 0, len(m.properties))
	for _, p := range m.properties {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SavedAt.Equal(out[j].SavedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SavedAt.Before(out[j].SavedAt)
	})
	return out, nil
}

// Get returns the property with id.
func (m *MemoryStore) Get(_ context.Context, id string) (SavedProperty, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.properties[id]
	if !ok {
		return SavedProperty{}, eris.Wrapf(ErrNotFound, "id %s", id)
	}
	return p, nil
}

// Delete removes the property with id.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.properties[id]; !ok {
		return eris.Wrapf(ErrNotFound, "id %s", id)
	}
	delete(m.properties, id)
	return nil
}
