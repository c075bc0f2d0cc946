package ledger

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Table, used when no spreadsheet is configured
type Memory struct {
	rows [][]string
	mu   sync.RWMutex
}

// NewMemory returns a table holding a copy of rows
func NewMemory(rows ...[]string) *Memory {
	m := &Memory{}
	for _, r := range rows {
		m.rows = append(m.rows, append([]string(nil), r...))
	}
	return m
}

func (m *Memory) Read(ctx context.Context) ([][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([][]string, len(m.rows))
	for i, r := range m.rows {
		result[i] = append([]string(nil), r...)
	}
	return result, nil
}

func (m *Memory) Update(ctx context.Context, row int, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if row < 1 || row > len(m.rows) {
		return fmt.Errorf("row %d out of range", row)
	}
	m.rows[row-1] = append([]string(nil), values...)
	return nil
}

func (m *Memory) Append(ctx context.Context, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range rows {
		m.rows = append(m.rows, append([]string(nil), r...))
	}
	return nil
}
