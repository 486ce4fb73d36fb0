package rowstore

import (
	"context"
	"sync"
)

// Memory is a process-local Backend that keeps raw header and cell rows, so it
// resolves aliases exactly like a spreadsheet would.
type Memory struct {
	mu     sync.Mutex
	tables map[string]*memTable
}

type memTable struct {
	headers []string
	rows    [][]string
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[string]*memTable)}
}

// Seed replaces the raw contents of a table.
func (m *Memory) Seed(table string, headers []string, rows ...[]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &memTable{headers: append([]string(nil), headers...)}
	for _, r := range rows {
		t.rows = append(t.rows, append([]string(nil), r...))
	}
	m.tables[table] = t
}

// Raw returns a copy of the header row and data rows of a table.
func (m *Memory) Raw(table string) (headers []string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[table]
	if !ok {
		return nil, nil
	}
	headers = append(headers, t.headers...)
	for _, r := range t.rows {
		rows = append(rows, append([]string(nil), r...))
	}
	return headers, rows
}

func (m *Memory) Read(_ context.Context, s Schema, keep func(Record) bool) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[s.Table]
	if !ok || len(t.headers) == 0 {
		return []Record{}, nil
	}

	out := []Record{}
	for _, row := range t.rows {
		rec := s.Project(t.headers, row)
		if keep == nil || keep(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *Memory) Append(_ context.Context, s Schema, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(s)
	t.rows = append(t.rows, s.Layout(t.headers, rec))
	return nil
}

func (m *Memory) Update(_ context.Context, s Schema, match func(Record) bool, patch Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(s)
	keys := s.ColumnKeys(t.headers)
	for i, row := range t.rows {
		if !match(s.Project(t.headers, row)) {
			continue
		}
		for col, key := range keys {
			v, ok := patch[key]
			if key == "" || !ok {
				continue
			}
			for len(row) <= col {
				row = append(row, "")
			}
			row[col] = v
		}
		t.rows[i] = row
		return nil
	}
	return ErrNotFound
}

// table returns the table for s, writing the default header row first if the
// table has none.
func (m *Memory) table(s Schema) *memTable {
	t, ok := m.tables[s.Table]
	if !ok {
		t = &memTable{}
		m.tables[s.Table] = t
	}
	if len(t.headers) == 0 {
		t.headers = append([]string(nil), s.Defaults...)
	}
	return t
}

var _ Backend = (*Memory)(nil)
