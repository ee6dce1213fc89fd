package storage

import (
	"fmt"
	"sync"
)

// MockStorage keeps the snapshots in memory.
type MockStorage struct {
	lock     sync.RWMutex
	Elements map[string]Snapshot
	// Count is the number of calls to Store, per name.
	Count map[string]int
}

func NewMockStorage() *MockStorage {
	return &MockStorage{
		Elements: make(map[string]Snapshot),
		Count:    make(map[string]int),
	}
}

func (m *MockStorage) Store(name string, s Snapshot) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.Elements[name] = s
	m.Count[name]++
	return nil
}

func (m *MockStorage) Load(name string) (Snapshot, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	s, ok := m.Elements[name]
	if !ok {
		return Snapshot{}, fmt.Errorf("not found '%v': %w", name, NotFoundErr)
	}
	return s, nil
}
