package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fmuoria/placement-agency/internal/models"
	"github.com/fmuoria/placement-agency/internal/sheets"
	"github.com/fmuoria/placement-agency/internal/status"
	"github.com/sirupsen/logrus"
)

var (
	ErrRecordNotFound  = errors.New("interview record not found")
	ErrMissingRecordID = errors.New("record id is required")
)

const (
	// maxSkippedSamples bounds how many skipped matches the export summary lists
	maxSkippedSamples = 5

	timestampLayout = "2006-01-02 15:04:05"
	dateLayout      = "2006-01-02"
)

var recordFields = []sheets.Field{
	sheets.Required("Record ID", "Record_ID"),
	sheets.Required("Candidate ID", "Candidate_ID"),
	sheets.Required("CID", "Company_ID", "Company ID"),
	sheets.Optional("Date Created"),
	sheets.Optional("Full Name"),
	sheets.Optional("Company Name"),
	sheets.Optional("Job Title", "Job_Title"),
	sheets.Optional("Match Score"),
	sheets.Optional("Interview Status"),
	sheets.Optional("Interview Date"),
	sheets.Optional("Interview Time"),
	sheets.Optional("Interview Round"),
	sheets.Optional("Result Status"),
	sheets.Optional("Salary Offered"),
	sheets.Optional("Joining Date"),
	sheets.Optional("Remarks"),
	sheets.Optional("Last Updated"),
	sheets.Optional("Updated By"),
}

// pair is the uniqueness key of an interview record
type pair struct {
	candidateID string
	companyID   string
}

// RecordUpdate carries the fields a recruiter changes on an existing record.
// A nil field is left as it is; a pointer to "" clears the cell.
type RecordUpdate struct {
	RecordID        string  `json:"record_id"`
	InterviewStatus *string `json:"interview_status,omitempty"`
	ResultStatus    *string `json:"result_status,omitempty"`
	InterviewDate   *string `json:"interview_date,omitempty"`
	InterviewTime   *string `json:"interview_time,omitempty"`
	InterviewRound  *string `json:"interview_round,omitempty"`
	SalaryOffered   *string `json:"salary_offered,omitempty"`
	JoiningDate     *string `json:"joining_date,omitempty"`
	Remarks         *string `json:"remarks,omitempty"`
	UpdatedBy       string  `json:"updated_by,omitempty"`
}

// Exporter writes matches into Interview_Records
type Exporter struct {
	client sheets.Client
	sync   *status.Synchronizer
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewExporter creates an exporter. sync receives outcomes recorded through UpdateOutcome.
func NewExporter(client sheets.Client, sync *status.Synchronizer, log logrus.FieldLogger) *Exporter {
	return &Exporter{
		client: client,
		sync:   sync,
		log:    log.WithField("component", "interview"),
		now:    time.Now,
	}
}

func (e *Exporter) read(ctx context.Context) ([][]string, sheets.Columns, error) {
	values, err := e.client.Values(ctx, sheets.TabInterviews)
	if err != nil {
		return nil, sheets.Columns{}, fmt.Errorf("could not access %s: %w", sheets.TabInterviews, err)
	}
	if len(values) == 0 {
		return nil, sheets.Columns{}, fmt.Errorf("%s: %w", sheets.TabInterviews, sheets.ErrEmptySheet)
	}

	cols, err := sheets.ResolveColumns(values[0], recordFields...)
	if err != nil {
		return nil, sheets.Columns{}, fmt.Errorf("%s: %w", sheets.TabInterviews, err)
	}
	return values, cols, nil
}

// Export appends one record per new (candidate, company) pair in a single write. Matches
// missing either ID, or whose pair is already scheduled (earlier in the sheet or earlier in
// this batch), are skipped and reported.
func (e *Exporter) Export(ctx context.Context, matches []models.Match) (models.ExportResult, error) {
	result := models.ExportResult{RecordIDs: []string{}, SkippedDetails: []string{}}

	values, cols, err := e.read(ctx)
	if err != nil {
		e.log.WithError(err).Error("Unable to read interview records")
		return result, err
	}

	var existingIDs []string
	scheduled := make(map[pair]struct{}, len(values))
	for _, row := range values[1:] {
		if id := strings.TrimSpace(cols.Get(row, "Record ID")); id != "" {
			existingIDs = append(existingIDs, id)
		}
		p := pair{
			candidateID: strings.TrimSpace(cols.Get(row, "Candidate ID")),
			companyID:   strings.TrimSpace(cols.Get(row, "CID")),
		}
		if p.candidateID != "" && p.companyID != "" {
			scheduled[p] = struct{}{}
		}
	}

	now := e.now()
	var rows [][]string
	for _, m := range matches {
		p := pair{
			candidateID: strings.TrimSpace(m.CandidateID),
			companyID:   strings.TrimSpace(m.CompanyID),
		}
		if p.candidateID == "" || p.companyID == "" {
			result.SkippedDetails = append(result.SkippedDetails, "Missing ID - "+orUnknown(m.CandidateName))
			continue
		}
		if _, dup := scheduled[p]; dup {
			result.SkippedDetails = append(result.SkippedDetails,
				fmt.Sprintf("%s - %s", orUnknown(m.CandidateName), orUnknown(m.CompanyName)))
			continue
		}

		recordID := GenerateRecordID(existingIDs)
		existingIDs = append(existingIDs, recordID)
		scheduled[p] = struct{}{}

		rows = append(rows, cols.Row(map[string]string{
			"Record ID":        recordID,
			"Date Created":     now.Format(dateLayout),
			"Candidate ID":     p.candidateID,
			"Full Name":        m.CandidateName,
			"Company Name":     m.CompanyName,
			"CID":              p.companyID,
			"Job Title":        m.JobTitle,
			"Match Score":      FormatScore(m),
			"Interview Status": models.InterviewStatusMatched,
			"Result Status":    models.StatusPending,
			"Salary Offered":   m.OfferedSalary,
			"Last Updated":     now.Format(timestampLayout),
			"Updated By":       models.UpdatedBySystem,
		}))
		result.RecordIDs = append(result.RecordIDs, recordID)
	}

	result.Added = len(rows)
	result.Skipped = len(result.SkippedDetails)

	if len(rows) > 0 {
		if err := e.client.AppendRows(ctx, sheets.TabInterviews, rows); err != nil {
			e.log.WithError(err).Error("Unable to append interview records")
			return models.ExportResult{RecordIDs: []string{}, SkippedDetails: result.SkippedDetails},
				fmt.Errorf("failed to append interview records: %w", err)
		}
		result.Success = true
	}

	result.Message = summarize(result)
	e.log.WithFields(logrus.Fields{
		"added":   result.Added,
		"skipped": result.Skipped,
	}).Info("Interview export finished")
	return result, nil
}

// ExportOne exports a single match
func (e *Exporter) ExportOne(ctx context.Context, m models.Match) (models.ExportResult, error) {
	return e.Export(ctx, []models.Match{m})
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

func summarize(r models.ExportResult) string {
	var b strings.Builder
	if r.Added > 0 {
		fmt.Fprintf(&b, "Successfully added %d record(s) to %s.", r.Added, sheets.TabInterviews)
		if r.Skipped > 0 {
			fmt.Fprintf(&b, "\nSkipped %d record(s):", r.Skipped)
		}
	} else {
		b.WriteString("No new records to add.")
		if r.Skipped > 0 {
			fmt.Fprintf(&b, "\nAll %d record(s) were skipped:", r.Skipped)
		}
	}

	for i, detail := range r.SkippedDetails {
		if i == maxSkippedSamples {
			fmt.Fprintf(&b, "\n  - ... and %d more", len(r.SkippedDetails)-maxSkippedSamples)
			break
		}
		fmt.Fprintf(&b, "\n  - %s", detail)
	}
	return b.String()
}

// List returns every interview record in sheet order
func (e *Exporter) List(ctx context.Context) ([]models.InterviewRecord, error) {
	values, cols, err := e.read(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]models.InterviewRecord, 0, len(values)-1)
	for _, row := range values[1:] {
		rec := toRecord(cols, row)
		if strings.TrimSpace(rec.RecordID) == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func toRecord(cols sheets.Columns, row []string) models.InterviewRecord {
	return models.InterviewRecord{
		RecordID:        cols.Get(row, "Record ID"),
		DateCreated:     cols.Get(row, "Date Created"),
		CandidateID:     cols.Get(row, "Candidate ID"),
		FullName:        cols.Get(row, "Full Name"),
		CompanyName:     cols.Get(row, "Company Name"),
		CID:             cols.Get(row, "CID"),
		JobTitle:        cols.Get(row, "Job Title"),
		MatchScore:      cols.Get(row, "Match Score"),
		InterviewStatus: cols.Get(row, "Interview Status"),
		InterviewDate:   cols.Get(row, "Interview Date"),
		InterviewTime:   cols.Get(row, "Interview Time"),
		InterviewRound:  cols.Get(row, "Interview Round"),
		ResultStatus:    cols.Get(row, "Result Status"),
		SalaryOffered:   cols.Get(row, "Salary Offered"),
		JoiningDate:     cols.Get(row, "Joining Date"),
		Remarks:         cols.Get(row, "Remarks"),
		LastUpdated:     cols.Get(row, "Last Updated"),
		UpdatedBy:       cols.Get(row, "Updated By"),
	}
}

// UpdateOutcome writes the supplied fields of one record and stamps Last Updated and Updated
// By. When either status changed, the change is propagated to Candidates and the vacancy
// tracker and the sync result is returned; otherwise the returned sync result is nil.
func (e *Exporter) UpdateOutcome(ctx context.Context, upd RecordUpdate) (*models.InterviewRecord, *models.SyncResult, error) {
	recordID := strings.TrimSpace(upd.RecordID)
	if recordID == "" {
		return nil, nil, ErrMissingRecordID
	}
	log := e.log.WithField("record_id", recordID)

	values, cols, err := e.read(ctx)
	if err != nil {
		log.WithError(err).Error("Unable to read interview records")
		return nil, nil, err
	}

	sheetRow := 0
	var rec models.InterviewRecord
	for i, row := range values[1:] {
		if strings.TrimSpace(cols.Get(row, "Record ID")) == recordID {
			sheetRow = i + 2
			rec = toRecord(cols, row)
			break
		}
	}
	if sheetRow == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
	}
	before := outcomeOf(rec)

	updatedBy := strings.TrimSpace(upd.UpdatedBy)
	if updatedBy == "" {
		updatedBy = models.UpdatedBySystem
	}
	stamp := e.now().Format(timestampLayout)

	changes := []struct {
		field string
		value *string
		dst   *string
	}{
		{"Interview Status", upd.InterviewStatus, &rec.InterviewStatus},
		{"Result Status", upd.ResultStatus, &rec.ResultStatus},
		{"Interview Date", upd.InterviewDate, &rec.InterviewDate},
		{"Interview Time", upd.InterviewTime, &rec.InterviewTime},
		{"Interview Round", upd.InterviewRound, &rec.InterviewRound},
		{"Salary Offered", upd.SalaryOffered, &rec.SalaryOffered},
		{"Joining Date", upd.JoiningDate, &rec.JoiningDate},
		{"Remarks", upd.Remarks, &rec.Remarks},
		{"Last Updated", &stamp, &rec.LastUpdated},
		{"Updated By", &updatedBy, &rec.UpdatedBy},
	}

	var cells []sheets.Cell
	for _, c := range changes {
		if c.value == nil {
			continue
		}
		value := strings.TrimSpace(*c.value)
		cell, ok := cols.Cell(sheetRow, c.field, value)
		if !ok {
			log.WithField("column", c.field).Warn("Column missing, value not written")
			continue
		}
		cells = append(cells, cell)
		*c.dst = value
	}

	if err := e.client.UpdateCells(ctx, sheets.TabInterviews, cells); err != nil {
		log.WithError(err).Error("Unable to update interview record")
		return nil, nil, fmt.Errorf("failed to update interview record: %w", err)
	}
	log.WithFields(logrus.Fields{
		"interview_status": rec.InterviewStatus,
		"result_status":    rec.ResultStatus,
	}).Info("Interview record updated")

	after := outcomeOf(rec)
	if strings.TrimSpace(before.InterviewStatus) == strings.TrimSpace(after.InterviewStatus) &&
		strings.TrimSpace(before.ResultStatus) == strings.TrimSpace(after.ResultStatus) {
		log.Debug("Statuses unchanged, skipping status sync")
		return &rec, nil, nil
	}

	sync := e.sync.SyncChange(ctx, before, after)
	return &rec, &sync, nil
}

func outcomeOf(rec models.InterviewRecord) models.Outcome {
	return models.Outcome{
		CandidateID:     rec.CandidateID,
		CompanyID:       rec.CID,
		JobTitle:        rec.JobTitle,
		InterviewStatus: rec.InterviewStatus,
		ResultStatus:    rec.ResultStatus,
	}
}
