// Package interview exports candidate/company matches into the Interview_Records worksheet
// without ever scheduling the same candidate with the same company twice.
package interview

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fmuoria/placement-agency/internal/models"
)

const recordPrefix = "IR"

// GenerateRecordID returns the next record ID after the highest existing IR number.
// IDs without the IR prefix or with a non-numeric suffix are ignored.
func GenerateRecordID(existing []string) string {
	highest := 0
	for _, id := range existing {
		id = strings.TrimSpace(id)
		if !strings.HasPrefix(id, recordPrefix) || len(id) == len(recordPrefix) {
			continue
		}
		n, err := strconv.Atoi(id[len(recordPrefix):])
		if err != nil || n < 0 {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%03d", recordPrefix, highest+1)
}

// Accepted spellings of each match key, first hit wins
var (
	candidateIDKeys   = []string{"Candidate_ID", "Candidate ID", "candidate_id"}
	candidateNameKeys = []string{"Candidate_Name", "Full Name", "candidate_name"}
	companyIDKeys     = []string{"CID", "Company_ID", "Company ID", "company_id"}
	companyNameKeys   = []string{"Company_Name", "Company Name", "company_name"}
	jobTitleKeys      = []string{"Job_Title", "Job Title", "job_title"}
	scoreKeys         = []string{"Match_Score", "Match Score", "match_score"}
	salaryKeys        = []string{"Offered_Salary", "Salary Offered", "offered_salary"}
)

// NormalizeMatch maps a loosely keyed match object onto models.Match
func NormalizeMatch(raw map[string]any) models.Match {
	m := models.Match{
		CandidateID:   stringValue(raw, candidateIDKeys),
		CandidateName: stringValue(raw, candidateNameKeys),
		CompanyID:     stringValue(raw, companyIDKeys),
		CompanyName:   stringValue(raw, companyNameKeys),
		JobTitle:      stringValue(raw, jobTitleKeys),
		OfferedSalary: stringValue(raw, salaryKeys),
	}

	v, ok := lookup(raw, scoreKeys)
	if !ok {
		return m
	}
	switch s := v.(type) {
	case float64:
		m.Score = &s
	case float32:
		f := float64(s)
		m.Score = &f
	case int:
		f := float64(s)
		m.Score = &f
	case int64:
		f := float64(s)
		m.Score = &f
	case json.Number:
		if f, err := s.Float64(); err == nil {
			m.Score = &f
		} else {
			m.ScoreText = s.String()
		}
	default:
		m.ScoreText = fmt.Sprint(v)
	}
	return m
}

func lookup(raw map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringValue(raw map[string]any, keys []string) string {
	v, ok := lookup(raw, keys)
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// FormatScore renders a match score for the sheet: fractions become whole percentages
// (0.85 -> "85%"), text scores are written unchanged, a missing score is "0%".
func FormatScore(m models.Match) string {
	switch {
	case m.Score != nil:
		return fmt.Sprintf("%d%%", int(*m.Score*100))
	case m.ScoreText != "":
		return m.ScoreText
	default:
		return "0%"
	}
}
