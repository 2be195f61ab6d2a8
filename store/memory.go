package store

import (
	"context"
	"sync"

	"docqa/types"
)

// MemoryStore is a process-local VectorStorer. Used by tests and by
// VECTOR_BACKEND=memory.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []string
	records map[string]types.IndexRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]types.IndexRecord)}
}

func (m *MemoryStore) Upsert(_ context.Context, records []types.IndexRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		if _, ok := m.records[r.ID]; !ok {
			m.order = append(m.order, r.ID)
		}
		r.Embedding = append([]float32(nil), r.Embedding...)
		m.records[r.ID] = r
	}
	return nil
}

func (m *MemoryStore) Search(_ context.Context, queryVec []float32, limit int) ([]types.Hit, error) {
	m.mu.RLock()
	candidates := make([]types.IndexRecord, 0, len(m.order))
	for _, id := range m.order {
		candidates = append(candidates, m.records[id])
	}
	m.mu.RUnlock()

	return rankHits(queryVec, candidates, limit)
}

func (m *MemoryStore) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

func (m *MemoryStore) Close() error {
	return nil
}
