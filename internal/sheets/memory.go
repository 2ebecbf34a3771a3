package sheets

import (
	"context"
	"fmt"
	"sync"
)

// MemoryClient keeps worksheets in process memory. It backs tests and local runs
// without Google credentials.
type MemoryClient struct {
	mu   sync.Mutex
	tabs map[string][][]string
}

// NewMemoryClient creates an empty spreadsheet with no worksheets
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{tabs: make(map[string][][]string)}
}

// NewSeededMemoryClient creates every portal worksheet with its default header row
func NewSeededMemoryClient() *MemoryClient {
	m := NewMemoryClient()
	for tab, headers := range DefaultHeaders {
		m.SetValues(tab, [][]string{headers})
	}
	return m
}

// SetValues replaces a worksheet's content, creating the worksheet if needed
func (m *MemoryClient) SetValues(tab string, values [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tabs[tab] = copyRows(values)
}

// Values returns a copy of the worksheet
func (m *MemoryClient) Values(ctx context.Context, tab string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	values, ok := m.tabs[tab]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTabNotFound, tab)
	}
	return copyRows(values), nil
}

// AppendRows appends copies of rows to the worksheet
func (m *MemoryClient) AppendRows(ctx context.Context, tab string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	values, ok := m.tabs[tab]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTabNotFound, tab)
	}
	m.tabs[tab] = append(values, copyRows(rows)...)
	return nil
}

// UpdateCells writes cells, growing the worksheet when a cell lies outside it
func (m *MemoryClient) UpdateCells(ctx context.Context, tab string, cells []Cell) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	values, ok := m.tabs[tab]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTabNotFound, tab)
	}

	for _, cell := range cells {
		if cell.Row < 1 || cell.Col < 1 {
			return fmt.Errorf("invalid cell position %d,%d", cell.Row, cell.Col)
		}
		for len(values) < cell.Row {
			values = append(values, nil)
		}
		row := values[cell.Row-1]
		for len(row) < cell.Col {
			row = append(row, "")
		}
		row[cell.Col-1] = cell.Value
		values[cell.Row-1] = row
	}
	m.tabs[tab] = values
	return nil
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
