package sheets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClient_SeededTabs(t *testing.T) {
	m := NewSeededMemoryClient()

	for tab, headers := range DefaultHeaders {
		values, err := m.Values(context.Background(), tab)
		require.NoError(t, err)
		require.Len(t, values, 1)
		assert.Equal(t, headers, values[0])
	}
}

func TestMemoryClient_UnknownTab(t *testing.T) {
	m := NewMemoryClient()
	ctx := context.Background()

	_, err := m.Values(ctx, "Nope")
	assert.ErrorIs(t, err, ErrTabNotFound)
	assert.ErrorIs(t, m.AppendRows(ctx, "Nope", [][]string{{"x"}}), ErrTabNotFound)
	assert.ErrorIs(t, m.UpdateCells(ctx, "Nope", []Cell{{Row: 1, Col: 1, Value: "x"}}), ErrTabNotFound)
}

func TestMemoryClient_AppendAndUpdate(t *testing.T) {
	m := NewMemoryClient()
	m.SetValues("T", [][]string{{"A", "B"}})
	ctx := context.Background()

	require.NoError(t, m.AppendRows(ctx, "T", [][]string{{"1", "2"}, {"3"}}))
	require.NoError(t, m.UpdateCells(ctx, "T", []Cell{
		{Row: 3, Col: 2, Value: "4"},
		{Row: 4, Col: 3, Value: "far"},
	}))

	values, err := m.Values(ctx, "T")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"A", "B"},
		{"1", "2"},
		{"3", "4"},
		{"", "", "far"},
	}, values)
}

func TestMemoryClient_ValuesReturnsCopy(t *testing.T) {
	m := NewMemoryClient()
	m.SetValues("T", [][]string{{"A"}, {"1"}})

	values, err := m.Values(context.Background(), "T")
	require.NoError(t, err)
	values[1][0] = "changed"

	again, err := m.Values(context.Background(), "T")
	require.NoError(t, err)
	assert.Equal(t, "1", again[1][0])
}

func TestMemoryClient_RejectsInvalidCell(t *testing.T) {
	m := NewMemoryClient()
	m.SetValues("T", [][]string{{"A"}})

	assert.Error(t, m.UpdateCells(context.Background(), "T", []Cell{{Row: 0, Col: 1, Value: "x"}}))
}

func TestMemoryClient_CanceledContext(t *testing.T) {
	m := NewSeededMemoryClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Values(ctx, TabUsers)
	assert.ErrorIs(t, err, context.Canceled)
}
