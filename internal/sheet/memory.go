package sheet

import (
	"context"
	"sync"
)

type memTable struct {
	header []string
	rows   [][]string
}

// memoryStore backs tests and DB_DRIVER=memory dev runs.
type memoryStore struct {
	mu     sync.RWMutex
	tables map[string]*memTable
}

func NewMemoryStore() Store {
	return &memoryStore{tables: map[string]*memTable{}}
}

func (m *memoryStore) table(name string) *memTable {
	t, ok := m.tables[name]
	if !ok {
		t = &memTable{}
		m.tables[name] = t
	}
	return t
}

func (m *memoryStore) ReadAll(_ context.Context, table string) ([][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[table]
	if !ok {
		return nil, nil
	}
	var out [][]string
	if t.header != nil {
		out = append(out, cloneRow(t.header))
	}
	for _, r := range t.rows {
		out = append(out, cloneRow(r))
	}
	return out, nil
}

func (m *memoryStore) Append(_ context.Context, table string, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.table(table)
	t.rows = append(t.rows, cloneRow(row))
	return nil
}

func (m *memoryStore) Tail(_ context.Context, table string, n int) ([][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[table]
	if !ok || n <= 0 {
		return nil, nil
	}
	out := make([][]string, 0, n)
	for i := len(t.rows) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, cloneRow(t.rows[i]))
	}
	return out, nil
}

func (m *memoryStore) Header(_ context.Context, table string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[table]
	if !ok || t.header == nil {
		return nil, nil
	}
	return cloneRow(t.header), nil
}

func (m *memoryStore) WriteHeader(_ context.Context, table string, header []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table(table).header = cloneRow(header)
	return nil
}

func (m *memoryStore) Reset(_ context.Context, table string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, table)
	return nil
}

func cloneRow(r []string) []string {
	out := make([]string, len(r))
	copy(out, r)
	return out
}
