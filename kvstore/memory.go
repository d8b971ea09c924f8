package kvstore

import (
	"context"
	"sync"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is a thread-safe in-memory Store.
type Memory struct {
	mu         sync.RWMutex
	nextID     int64
	categories map[string]*Category
	values     map[int64][]Value // categoryID -> ordered records
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nextID:     1,
		categories: make(map[string]*Category),
		values:     make(map[int64][]Value),
	}
}

func (m *Memory) GetCategory(_ context.Context, shorty string) (*Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cat, ok := m.categories[shorty]
	if !ok {
		return nil, nil
	}
	copied := *cat
	return &copied, nil
}

func (m *Memory) CreateCategory(_ context.Context, spec CategorySpec) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.categories[spec.Shorty]; ok {
		copied := *existing
		return &copied, nil
	}
	cat := &Category{ID: m.nextID, Shorty: spec.Shorty, Name: spec.Name}
	m.nextID++
	m.categories[spec.Shorty] = cat
	copied := *cat
	return &copied, nil
}

func (m *Memory) Values(_ context.Context, categoryID int64) ([]Value, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]Value, len(m.values[categoryID]))
	copy(result, m.values[categoryID])
	return result, nil
}

func (m *Memory) CreateValue(_ context.Context, categoryID int64, payload string) (Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := Value{ID: m.nextID, Payload: payload}
	m.nextID++
	m.values[categoryID] = append(m.values[categoryID], v)
	return v, nil
}

func (m *Memory) UpdateValue(_ context.Context, categoryID, valueID int64, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vs := m.values[categoryID]
	for i := range vs {
		if vs[i].ID == valueID {
			vs[i].Payload = payload
			return nil
		}
	}
	return ErrValueMissing
}

func (m *Memory) DeleteValue(_ context.Context, categoryID, valueID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vs := m.values[categoryID]
	for i := range vs {
		if vs[i].ID == valueID {
			m.values[categoryID] = append(vs[:i], vs[i+1:]...)
			return nil
		}
	}
	return ErrValueMissing
}
