package recorder

import (
	"context"
	"sort"
	"sync"

	"StockHawk/internal/model"
)

// MemoryStore is an in-process QuoteStore and RunRecorder used by tests and
// by runs without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]model.QuoteRecord
	runs    []model.SyncRun
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]model.QuoteRecord)}
}

func (m *MemoryStore) BulkUpsert(_ context.Context, records []model.QuoteRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		r.History = clonePoints(r.History)
		if r.History == nil {
			if old, ok := m.records[r.Symbol]; ok {
				r.History = old.History
			}
		}
		m.records[r.Symbol] = r
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, symbol)
	return nil
}

func (m *MemoryStore) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]model.QuoteRecord)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, symbol string) (*model.QuoteRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[symbol]
	if !ok {
		return nil, ErrNotFound
	}
	r.History = clonePoints(r.History)
	return &r, nil
}

func (m *MemoryStore) List(_ context.Context) ([]model.QuoteRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.QuoteRecord, 0, len(m.records))
	for _, r := range m.records {
		r.History = clonePoints(r.History)
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *MemoryStore) RecordSyncRun(_ context.Context, run *model.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

// Runs returns the recorded sync runs in order.
func (m *MemoryStore) Runs() []model.SyncRun {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.SyncRun(nil), m.runs...)
}

func clonePoints(p []model.HistoryPoint) []model.HistoryPoint {
	if len(p) == 0 {
		return nil
	}
	return append([]model.HistoryPoint(nil), p...)
}
