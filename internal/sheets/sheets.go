// Package sheets is the spreadsheet access layer. The agency's spreadsheet is the only
// datastore: every worksheet is read whole, scanned in memory and written back cell by cell
// or as a batch of appended rows.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Worksheet names used by the portal
const (
	TabUsers      = "Users"
	TabLoginLogs  = "Login_Logs"
	TabCandidates = "Candidates"
	TabVacancies  = "Sheet4"
	TabInterviews = "Interview_Records"
)

var (
	// ErrTabNotFound is returned when a worksheet does not exist in the spreadsheet
	ErrTabNotFound = errors.New("worksheet not found")
	// ErrMissingColumns is returned when required headers are absent from a worksheet
	ErrMissingColumns = errors.New("required columns not found")
	// ErrEmptySheet is returned when a worksheet has no header row
	ErrEmptySheet = errors.New("worksheet has no header row")
)

// Cell addresses a single cell write. Row and Col are 1-based, row 1 being the header row.
type Cell struct {
	Row   int
	Col   int
	Value string
}

// Client reads and writes worksheets of one spreadsheet
type Client interface {
	// Values returns every row of the worksheet, header row first. Rows may be ragged.
	Values(ctx context.Context, tab string) ([][]string, error)
	// AppendRows appends rows after the last non-empty row in a single write
	AppendRows(ctx context.Context, tab string, rows [][]string) error
	// UpdateCells writes the given cells
	UpdateCells(ctx context.Context, tab string, cells []Cell) error
}

// ColumnLetter converts a 1-based column number to its A1 letters (1 -> A, 27 -> AA)
func ColumnLetter(col int) string {
	if col < 1 {
		return ""
	}
	var letters []byte
	for col > 0 {
		col--
		letters = append([]byte{byte('A' + col%26)}, letters...)
		col /= 26
	}
	return string(letters)
}

// TabRange returns the A1 range covering a whole worksheet
func TabRange(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// CellRange returns the A1 range of one cell
func CellRange(tab string, row, col int) string {
	return fmt.Sprintf("%s!%s%d", TabRange(tab), ColumnLetter(col), row)
}

// DefaultHeaders is the header row of each worksheet as the agency set it up.
// Column order in the live spreadsheet is not guaranteed and is always resolved by name.
var DefaultHeaders = map[string][]string{
	TabUsers:      {"Username", "Password", "Role", "Full Name", "Email", "Status", "Created Date"},
	TabLoginLogs:  {"Timestamp", "Username", "Status", "IP Address"},
	TabCandidates: {"Candidate ID", "Full Name", "Phone", "Email", "Status"},
	TabVacancies:  {"CID", "Company Name", "Job Title", "Vacancy Count", "Vacancy Filled", "Status"},
	TabInterviews: {
		"Record ID", "Date Created", "Candidate ID", "Full Name", "Company Name", "CID",
		"Job Title", "Match Score", "Interview Status", "Interview Date", "Interview Time",
		"Interview Round", "Result Status", "Salary Offered", "Joining Date", "Remarks",
		"Last Updated", "Updated By",
	},
}
