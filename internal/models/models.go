package models

import "strings"

// Roles a portal user can hold
const (
	RoleAdmin     = "ADMIN"
	RoleRecruiter = "RECRUITER"
	RoleViewer    = "VIEWER"
)

// UserStatusActive is the only user status that allows login
const UserStatusActive = "Active"

// Candidate status labels, highest priority first
const (
	StatusSelected = "Selected"
	StatusDemo     = "Demo"
	StatusHold     = "Hold"
	StatusRejected = "Rejected"
	StatusPending  = "Pending"
)

// Vacancy states
const (
	VacancyRunning = "Running"
	VacancyClosed  = "Closed"
)

// Defaults written into freshly exported interview records
const (
	InterviewStatusMatched = "Matched"
	UpdatedBySystem        = "System"
)

// User is a row of the Users worksheet
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Status       string `json:"status"`
	CreatedDate  string `json:"created_date,omitempty"`
}

// IsAdmin reports whether the user holds the ADMIN role
func (u User) IsAdmin() bool {
	return IsAdminRole(u.Role)
}

// IsAdminRole compares a role label against ADMIN case-insensitively
func IsAdminRole(role string) bool {
	return strings.EqualFold(strings.TrimSpace(role), RoleAdmin)
}

// IsActive reports whether the user's status allows login
func (u User) IsActive() bool {
	return strings.EqualFold(strings.TrimSpace(u.Status), UserStatusActive)
}

// NewUser holds the fields an admin supplies when adding a user
type NewUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// LoginLog is a row of the Login_Logs worksheet
type LoginLog struct {
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	Status    string `json:"status"`
	IPAddress string `json:"ip_address"`
}

// Match is the canonical shape of a candidate/company match handed to the exporter
type Match struct {
	CandidateID   string   `json:"candidate_id"`
	CandidateName string   `json:"candidate_name"`
	CompanyID     string   `json:"company_id"`
	CompanyName   string   `json:"company_name"`
	JobTitle      string   `json:"job_title"`
	Score         *float64 `json:"score,omitempty"`      // 0-1 fraction
	ScoreText     string   `json:"score_text,omitempty"` // non-numeric score, written as-is
	OfferedSalary string   `json:"offered_salary"`
}

// InterviewRecord is a row of the Interview_Records worksheet
type InterviewRecord struct {
	RecordID        string `json:"record_id"`
	DateCreated     string `json:"date_created"`
	CandidateID     string `json:"candidate_id"`
	FullName        string `json:"full_name"`
	CompanyName     string `json:"company_name"`
	CID             string `json:"cid"`
	JobTitle        string `json:"job_title"`
	MatchScore      string `json:"match_score"`
	InterviewStatus string `json:"interview_status"`
	InterviewDate   string `json:"interview_date"`
	InterviewTime   string `json:"interview_time"`
	InterviewRound  string `json:"interview_round"`
	ResultStatus    string `json:"result_status"`
	SalaryOffered   string `json:"salary_offered"`
	JoiningDate     string `json:"joining_date"`
	Remarks         string `json:"remarks"`
	LastUpdated     string `json:"last_updated"`
	UpdatedBy       string `json:"updated_by"`
}

// Vacancy is a row of the vacancy tracker, keyed by (CompanyID, JobTitle)
type Vacancy struct {
	CompanyID     string `json:"company_id"`
	JobTitle      string `json:"job_title"`
	VacancyCount  int    `json:"vacancy_count"`
	VacancyFilled int    `json:"vacancy_filled"`
	Status        string `json:"status"`
}

// ExportResult summarises one export batch
type ExportResult struct {
	Success        bool     `json:"success"`
	Added          int      `json:"added"`
	Skipped        int      `json:"skipped"`
	RecordIDs      []string `json:"record_ids"`
	SkippedDetails []string `json:"skipped_details"`
	Message        string   `json:"message"`
}

// Outcome is an interview result to propagate into Candidates and the vacancy tracker
type Outcome struct {
	CandidateID     string `json:"candidate_id"`
	CompanyID       string `json:"company_id"`
	JobTitle        string `json:"job_title"`
	InterviewStatus string `json:"interview_status"`
	ResultStatus    string `json:"result_status"`
}

// SyncResult reports both halves of a status sync independently
type SyncResult struct {
	Success          bool     `json:"success"`
	CandidateUpdated bool     `json:"candidate_updated"`
	CandidateStatus  string   `json:"candidate_status,omitempty"`
	CandidateError   string   `json:"candidate_error,omitempty"`
	VacancyUpdated   bool     `json:"vacancy_updated"`
	Vacancy          *Vacancy `json:"vacancy,omitempty"`
	VacancyError     string   `json:"vacancy_error,omitempty"`
}
