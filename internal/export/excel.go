// Package export renders admin reports as Excel workbooks
package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fmuoria/placement-agency/internal/models"
	"github.com/xuri/excelize/v2"
)

// Sheet names
const (
	SheetUsers      = "Users"
	SheetLoginLogs  = "Login Logs"
	SheetSummary    = "Summary"
	SheetInterviews = "Interview Records"
)

const (
	headerColor = "4472C4"
	timeLayout  = "2006-01-02 15:04:05"
)

// Row fills by result status
var statusFills = map[string]string{
	models.StatusSelected: "C6EFCE",
	models.StatusHold:     "FFEB9C",
	models.StatusRejected: "FFC7CE",
}

// Users writes the user list. Password hashes are never exported.
func Users(w io.Writer, users []models.User) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", SheetUsers)

	headers := []string{"Username", "Full Name", "Role", "Email", "Status", "Created Date"}
	rows := make([][]string, len(users))
	for i, u := range users {
		rows[i] = []string{u.Username, u.FullName, u.Role, u.Email, u.Status, u.CreatedDate}
	}
	if err := writeTable(f, SheetUsers, headers, rows, nil); err != nil {
		return fmt.Errorf("failed to create users sheet: %w", err)
	}

	return write(f, w)
}

// LoginLogs writes login activity in the order given
func LoginLogs(w io.Writer, logs []models.LoginLog) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", SheetLoginLogs)

	headers := []string{"Timestamp", "Username", "Status", "IP Address"}
	rows := make([][]string, len(logs))
	for i, l := range logs {
		rows[i] = []string{l.Timestamp, l.Username, l.Status, l.IPAddress}
	}
	if err := writeTable(f, SheetLoginLogs, headers, rows, nil); err != nil {
		return fmt.Errorf("failed to create login logs sheet: %w", err)
	}

	return write(f, w)
}

// Interviews writes a summary sheet counting records per result status, followed by the
// records themselves color-coded by result.
func Interviews(w io.Writer, records []models.InterviewRecord, generated time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", SheetSummary)
	if _, err := f.NewSheet(SheetInterviews); err != nil {
		return err
	}

	if err := createSummarySheet(f, SheetSummary, records, generated); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	headers := []string{
		"Record ID", "Date Created", "Candidate ID", "Full Name", "Company Name", "CID",
		"Job Title", "Match Score", "Interview Status", "Interview Date", "Interview Time",
		"Interview Round", "Result Status", "Salary Offered", "Joining Date", "Remarks",
		"Last Updated", "Updated By",
	}
	rows := make([][]string, len(records))
	fills := make([]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.RecordID, r.DateCreated, r.CandidateID, r.FullName, r.CompanyName, r.CID,
			r.JobTitle, r.MatchScore, r.InterviewStatus, r.InterviewDate, r.InterviewTime,
			r.InterviewRound, r.ResultStatus, r.SalaryOffered, r.JoiningDate, r.Remarks,
			r.LastUpdated, r.UpdatedBy,
		}
		fills[i] = statusFills[strings.TrimSpace(r.ResultStatus)]
	}
	if err := writeTable(f, SheetInterviews, headers, rows, fills); err != nil {
		return fmt.Errorf("failed to create interview records sheet: %w", err)
	}

	return write(f, w)
}

// StatusCounts tallies records by result status. Blank statuses count as Pending.
func StatusCounts(records []models.InterviewRecord) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		s := strings.TrimSpace(r.ResultStatus)
		if s == "" {
			s = models.StatusPending
		}
		counts[s]++
	}
	return counts
}

// orderedStatuses lists known statuses by priority, then any others alphabetically
func orderedStatuses(counts map[string]int) []string {
	known := []string{models.StatusSelected, models.StatusDemo, models.StatusHold, models.StatusRejected, models.StatusPending}
	seen := make(map[string]bool, len(known))
	var out []string
	for _, s := range known {
		seen[s] = true
		if counts[s] > 0 {
			out = append(out, s)
		}
	}

	var other []string
	for s := range counts {
		if !seen[s] {
			other = append(other, s)
		}
	}
	sort.Strings(other)
	return append(out, other...)
}

func createSummarySheet(f *excelize.File, sheetName string, records []models.InterviewRecord, generated time.Time) error {
	f.SetColWidth(sheetName, "A", "A", 25)
	f.SetColWidth(sheetName, "B", "B", 30)

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	labelStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return err
	}

	row := 1

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Interview Records Report")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), titleStyle)
	f.MergeCell(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row))
	row += 2

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Generated:")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), generated.Format(timeLayout))
	row++

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Total Records:")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), len(records))
	row += 2

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Result Status")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), titleStyle)
	f.MergeCell(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row))
	row++

	counts := StatusCounts(records)
	for _, s := range orderedStatuses(counts) {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), s+":")
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), counts[s])
		row++
	}

	return nil
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// writeTable lays out a header row and data rows with borders, an auto-filter and a frozen
// header. fills, when given, holds a background color per data row ("" for none).
func writeTable(f *excelize.File, sheetName string, headers []string, rows [][]string, fills []string) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		return err
	}

	plainStyle, err := f.NewStyle(&excelize.Style{Border: thinBorder})
	if err != nil {
		return err
	}
	fillStyles := make(map[string]int)

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)

		name, _ := excelize.ColumnNumberToName(col + 1)
		f.SetColWidth(sheetName, name, name, columnWidth(header))
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	for i, values := range rows {
		row := i + 2
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheetName, cell, v)
		}

		style := plainStyle
		if fills != nil && fills[i] != "" {
			s, ok := fillStyles[fills[i]]
			if !ok {
				s, err = f.NewStyle(&excelize.Style{
					Fill:   excelize.Fill{Type: "pattern", Color: []string{fills[i]}, Pattern: 1},
					Border: thinBorder,
				})
				if err != nil {
					return err
				}
				fillStyles[fills[i]] = s
			}
			style = s
		}
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), style)
	}

	if len(rows) > 0 {
		f.AutoFilter(sheetName, fmt.Sprintf("A1:%s%d", lastCol, len(rows)+1), []excelize.AutoFilterOptions{})
	}

	// Freeze top row
	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	return nil
}

func columnWidth(header string) float64 {
	switch header {
	case "Full Name", "Company Name", "Job Title", "Email", "Remarks":
		return 25
	case "Timestamp", "Last Updated":
		return 20
	default:
		return 15
	}
}

func write(f *excelize.File, w io.Writer) error {
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveFile renders a report into outputPath, adding the .xlsx extension when missing, and
// returns the path written.
func SaveFile(outputPath string, render func(io.Writer) error) (string, error) {
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath = outputPath + ".xlsx"
	}

	// Clean the path for cross-platform compatibility (Windows paths)
	outputPath = filepath.Clean(outputPath)

	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return "", err
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to save Excel file: %w", err)
	}

	return outputPath, nil
}
