package sheets

import (
	"fmt"
	"strings"
)

// FindColumnIndex returns the 1-based position of the header matching name
// case-insensitively with surrounding whitespace stripped, or 0 when absent.
func FindColumnIndex(headers []string, name string) int {
	want := normalizeHeader(name)
	for i, h := range headers {
		if normalizeHeader(h) == want {
			return i + 1
		}
	}
	return 0
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Field is a logical column: its canonical header plus accepted alternative spellings
type Field struct {
	Name     string
	Aliases  []string
	Required bool
}

// Required declares a field whose absence aborts the operation
func Required(name string, aliases ...string) Field {
	return Field{Name: name, Aliases: aliases, Required: true}
}

// Optional declares a field that may be missing from the live sheet
func Optional(name string, aliases ...string) Field {
	return Field{Name: name, Aliases: aliases}
}

// Columns maps logical field names to positions in a live header row
type Columns struct {
	width int
	index map[string]int // field name -> 0-based position
}

// ResolveColumns validates fields against the live header row once. Every missing required
// field is named in the returned error, which wraps ErrMissingColumns.
func ResolveColumns(headers []string, fields ...Field) (Columns, error) {
	cols := Columns{width: len(headers), index: make(map[string]int, len(fields))}
	var missing []string

	for _, f := range fields {
		pos := FindColumnIndex(headers, f.Name)
		for _, alias := range f.Aliases {
			if pos != 0 {
				break
			}
			pos = FindColumnIndex(headers, alias)
		}
		if pos == 0 {
			if f.Required {
				missing = append(missing, f.Name)
			}
			continue
		}
		cols.index[f.Name] = pos - 1
	}

	if len(missing) > 0 {
		return Columns{}, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return cols, nil
}

// Has reports whether the field was found in the header row
func (c Columns) Has(field string) bool {
	_, ok := c.index[field]
	return ok
}

// Index returns the 1-based column of field, or 0 when it is absent
func (c Columns) Index(field string) int {
	pos, ok := c.index[field]
	if !ok {
		return 0
	}
	return pos + 1
}

// Get returns the field's cell in row, or "" when the field or the cell is missing
func (c Columns) Get(row []string, field string) string {
	pos, ok := c.index[field]
	if !ok || pos >= len(row) {
		return ""
	}
	return row[pos]
}

// Row lays values out in live header order. Headers without a value get an empty cell.
func (c Columns) Row(values map[string]string) []string {
	row := make([]string, c.width)
	for field, v := range values {
		if pos, ok := c.index[field]; ok {
			row[pos] = v
		}
	}
	return row
}

// Cell builds a write of field in the given 1-based sheet row. ok is false when the
// field has no column.
func (c Columns) Cell(row int, field, value string) (Cell, bool) {
	col := c.Index(field)
	if col == 0 {
		return Cell{}, false
	}
	return Cell{Row: row, Col: col, Value: value}, true
}
