// Package status propagates interview outcomes into the Candidates worksheet and the
// vacancy tracker. Column positions are always resolved from the live header row.
package status

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fmuoria/placement-agency/internal/models"
	"github.com/fmuoria/placement-agency/internal/sheets"
	"github.com/sirupsen/logrus"
)

var (
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrVacancyNotFound   = errors.New("vacancy not found")
	ErrInvalidVacancy    = errors.New("invalid vacancy numbers")
)

var candidateFields = []sheets.Field{
	sheets.Required("Candidate ID", "Candidate_ID"),
	sheets.Required("Status"),
}

var vacancyFields = []sheets.Field{
	sheets.Required("CID"),
	sheets.Required("Job Title", "Job_Title"),
	sheets.Required("Vacancy Filled"),
	sheets.Required("Vacancy Count"),
	sheets.Required("Status"),
}

// Synchronizer rewrites the denormalized status cells after an interview outcome changes
type Synchronizer struct {
	client sheets.Client
	log    logrus.FieldLogger
}

// NewSynchronizer creates a synchronizer over the spreadsheet client
func NewSynchronizer(client sheets.Client, log logrus.FieldLogger) *Synchronizer {
	return &Synchronizer{
		client: client,
		log:    log.WithField("component", "status"),
	}
}

// CandidateStatus picks the highest-priority label: Selected > Demo > Hold > Rejected > Pending
func CandidateStatus(interviewStatus, resultStatus string) string {
	interview := strings.TrimSpace(interviewStatus)
	result := strings.TrimSpace(resultStatus)

	switch {
	case interview == models.StatusSelected || result == models.StatusSelected:
		return models.StatusSelected
	case interview == models.StatusDemo:
		return models.StatusDemo
	case interview == models.StatusHold || result == models.StatusHold:
		return models.StatusHold
	case result == models.StatusRejected:
		return models.StatusRejected
	default:
		return models.StatusPending
	}
}

// IsSelected reports whether either status records a hire
func IsSelected(interviewStatus, resultStatus string) bool {
	return strings.TrimSpace(interviewStatus) == models.StatusSelected ||
		strings.TrimSpace(resultStatus) == models.StatusSelected
}

func (s *Synchronizer) read(ctx context.Context, tab string, fields []sheets.Field) ([][]string, sheets.Columns, error) {
	values, err := s.client.Values(ctx, tab)
	if err != nil {
		return nil, sheets.Columns{}, fmt.Errorf("failed to read %s: %w", tab, err)
	}
	if len(values) == 0 {
		return nil, sheets.Columns{}, fmt.Errorf("%s: %w", tab, sheets.ErrEmptySheet)
	}

	cols, err := sheets.ResolveColumns(values[0], fields...)
	if err != nil {
		return nil, sheets.Columns{}, fmt.Errorf("%s: %w", tab, err)
	}
	return values, cols, nil
}

// UpdateCandidate writes the candidate's recomputed status label and returns it
func (s *Synchronizer) UpdateCandidate(ctx context.Context, candidateID, interviewStatus, resultStatus string) (string, error) {
	log := s.log.WithField("candidate_id", candidateID)
	log.Debug("Updating candidate status")

	values, cols, err := s.read(ctx, sheets.TabCandidates, candidateFields)
	if err != nil {
		log.WithError(err).Error("Unable to read Candidates")
		return "", err
	}

	want := strings.TrimSpace(candidateID)
	for i, row := range values[1:] {
		if strings.TrimSpace(cols.Get(row, "Candidate ID")) != want {
			continue
		}

		newStatus := CandidateStatus(interviewStatus, resultStatus)
		cell, _ := cols.Cell(i+2, "Status", newStatus)
		if err := s.client.UpdateCells(ctx, sheets.TabCandidates, []sheets.Cell{cell}); err != nil {
			return "", fmt.Errorf("failed to update candidate status: %w", err)
		}

		log.WithField("status", newStatus).Info("Candidate status updated")
		return newStatus, nil
	}

	log.Warn("Candidate not found in Candidates sheet")
	return "", fmt.Errorf("%w: %s", ErrCandidateNotFound, candidateID)
}

// UpdateVacancy applies a Selected outcome to the vacancy (companyID, jobTitle): the filled
// counter grows by one while below the count, then Status becomes Closed once filled reaches
// count and Running otherwise. Other outcomes leave the row untouched.
func (s *Synchronizer) UpdateVacancy(ctx context.Context, companyID, jobTitle, interviewStatus, resultStatus string) (*models.Vacancy, error) {
	return s.updateVacancy(ctx, companyID, jobTitle, IsSelected(interviewStatus, resultStatus))
}

// updateVacancy counts one hire against the vacancy when hire is set, otherwise only reads it
func (s *Synchronizer) updateVacancy(ctx context.Context, companyID, jobTitle string, hire bool) (*models.Vacancy, error) {
	log := s.log.WithFields(logrus.Fields{"company_id": companyID, "job_title": jobTitle})
	log.Debug("Updating vacancy")

	values, cols, err := s.read(ctx, sheets.TabVacancies, vacancyFields)
	if err != nil {
		log.WithError(err).Error("Unable to read vacancy tracker")
		return nil, err
	}

	wantCID := strings.TrimSpace(companyID)
	wantTitle := strings.TrimSpace(jobTitle)
	for i, row := range values[1:] {
		if strings.TrimSpace(cols.Get(row, "CID")) != wantCID ||
			strings.TrimSpace(cols.Get(row, "Job Title")) != wantTitle {
			continue
		}
		sheetRow := i + 2

		vacancy := &models.Vacancy{
			CompanyID: cols.Get(row, "CID"),
			JobTitle:  cols.Get(row, "Job Title"),
			Status:    cols.Get(row, "Status"),
		}

		filled, filledErr := parseCount(cols.Get(row, "Vacancy Filled"))
		count, countErr := parseCount(cols.Get(row, "Vacancy Count"))
		vacancy.VacancyFilled, vacancy.VacancyCount = filled, count

		if !hire {
			return vacancy, nil
		}
		if err := errors.Join(filledErr, countErr); err != nil {
			log.WithError(err).Error("Error parsing vacancy numbers")
			return nil, err
		}

		if filled < count {
			filled++
			cell, _ := cols.Cell(sheetRow, "Vacancy Filled", strconv.Itoa(filled))
			if err := s.client.UpdateCells(ctx, sheets.TabVacancies, []sheets.Cell{cell}); err != nil {
				return nil, fmt.Errorf("failed to update vacancy filled: %w", err)
			}
			vacancy.VacancyFilled = filled
			log.Infof("Vacancy filled incremented: %d/%d", filled, count)
		}

		state := models.VacancyRunning
		if filled >= count {
			state = models.VacancyClosed
		}
		cell, _ := cols.Cell(sheetRow, "Status", state)
		if err := s.client.UpdateCells(ctx, sheets.TabVacancies, []sheets.Cell{cell}); err != nil {
			return nil, fmt.Errorf("failed to update vacancy status: %w", err)
		}
		vacancy.Status = state
		log.WithField("status", state).Info("Vacancy status updated")

		return vacancy, nil
	}

	log.Warn("Vacancy not found")
	return nil, fmt.Errorf("%w: %s - %s", ErrVacancyNotFound, companyID, jobTitle)
}

func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidVacancy, s)
	}
	return n, nil
}

// Sync updates the candidate and the vacancy independently. The result is successful when
// at least one of them was updated, since either may legitimately be absent.
func (s *Synchronizer) Sync(ctx context.Context, outcome models.Outcome) models.SyncResult {
	return s.sync(ctx, outcome, IsSelected(outcome.InterviewStatus, outcome.ResultStatus))
}

// SyncChange propagates a record moving from before to after. The candidate label follows
// after; the vacancy counts a hire only when the record moves into Selected, so re-saving an
// already Selected record never fills another slot.
func (s *Synchronizer) SyncChange(ctx context.Context, before, after models.Outcome) models.SyncResult {
	hire := !IsSelected(before.InterviewStatus, before.ResultStatus) &&
		IsSelected(after.InterviewStatus, after.ResultStatus)
	return s.sync(ctx, after, hire)
}

func (s *Synchronizer) sync(ctx context.Context, outcome models.Outcome, hire bool) models.SyncResult {
	log := s.log.WithField("candidate_id", outcome.CandidateID)
	log.Info("Starting status sync")

	var result models.SyncResult

	newStatus, err := s.UpdateCandidate(ctx, outcome.CandidateID, outcome.InterviewStatus, outcome.ResultStatus)
	if err != nil {
		result.CandidateError = err.Error()
	} else {
		result.CandidateUpdated = true
		result.CandidateStatus = newStatus
	}

	vacancy, err := s.updateVacancy(ctx, outcome.CompanyID, outcome.JobTitle, hire)
	if err != nil {
		result.VacancyError = err.Error()
	} else {
		result.VacancyUpdated = true
		result.Vacancy = vacancy
	}

	result.Success = result.CandidateUpdated || result.VacancyUpdated
	if result.CandidateUpdated && result.VacancyUpdated {
		log.Info("Status sync completed successfully")
	} else {
		log.WithFields(logrus.Fields{
			"candidate_error": result.CandidateError,
			"vacancy_error":   result.VacancyError,
		}).Warn("Status sync completed with warnings")
	}
	return result
}
