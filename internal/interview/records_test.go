package interview

import (
	"encoding/json"
	"testing"

	"github.com/fmuoria/placement-agency/internal/models"
)

func TestGenerateRecordID(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		expected string
	}{
		{name: "Empty", existing: nil, expected: "IR001"},
		{name: "Sequential", existing: []string{"IR001", "IR002"}, expected: "IR003"},
		{name: "Gap uses max", existing: []string{"IR001", "IR003"}, expected: "IR004"},
		{name: "Unordered", existing: []string{"IR010", "IR002"}, expected: "IR011"},
		{name: "Ignores foreign ids", existing: []string{"X123", "IRabc", "IR", "IR005"}, expected: "IR006"},
		{name: "Only foreign ids", existing: []string{"REC1", "IR-x"}, expected: "IR001"},
		{name: "Past three digits", existing: []string{"IR999"}, expected: "IR1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateRecordID(tt.existing); got != tt.expected {
				t.Errorf("GenerateRecordID(%v) = %s, want %s", tt.existing, got, tt.expected)
			}
		})
	}
}

func TestNormalizeMatch(t *testing.T) {
	m := NormalizeMatch(map[string]any{
		"Candidate ID":   "C001",
		"Candidate_Name": "Asha",
		"Company_ID":     "CO1",
		"Company Name":   "Acme",
		"Job_Title":      "Math Tutor",
		"Match_Score":    0.85,
		"Offered_Salary": "25000",
	})

	if m.CandidateID != "C001" || m.CompanyID != "CO1" {
		t.Fatalf("ids not normalized: %+v", m)
	}
	if m.CandidateName != "Asha" || m.CompanyName != "Acme" || m.JobTitle != "Math Tutor" {
		t.Errorf("names not normalized: %+v", m)
	}
	if m.OfferedSalary != "25000" {
		t.Errorf("OfferedSalary = %q", m.OfferedSalary)
	}
	if m.Score == nil || *m.Score != 0.85 {
		t.Errorf("Score = %v, want 0.85", m.Score)
	}
}

func TestNormalizeMatch_NumericIDs(t *testing.T) {
	m := NormalizeMatch(map[string]any{"Candidate_ID": json.Number("101"), "CID": 7})

	if m.CandidateID != "101" || m.CompanyID != "7" {
		t.Errorf("got %q/%q, want 101/7", m.CandidateID, m.CompanyID)
	}
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		expected string
	}{
		{name: "Fraction", raw: 0.85, expected: "85%"},
		{name: "Truncates", raw: 0.857, expected: "85%"},
		{name: "Integer", raw: 1, expected: "100%"},
		{name: "JSON number", raw: json.Number("0.5"), expected: "50%"},
		{name: "Text kept", raw: "High", expected: "High"},
		{name: "Percent text kept", raw: "72%", expected: "72%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NormalizeMatch(map[string]any{"Match_Score": tt.raw})
			if got := FormatScore(m); got != tt.expected {
				t.Errorf("FormatScore(%v) = %q, want %q", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestFormatScore_Missing(t *testing.T) {
	if got := FormatScore(models.Match{}); got != "0%" {
		t.Errorf("FormatScore(empty) = %q, want 0%%", got)
	}
}
