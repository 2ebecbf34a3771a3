package api

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/fmuoria/placement-agency/internal/auth"
	"github.com/fmuoria/placement-agency/internal/export"
	"github.com/fmuoria/placement-agency/internal/interview"
	"github.com/fmuoria/placement-agency/internal/models"
	"github.com/go-chi/chi/v5"
)

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// handleLogin accepts a JSON body or an HTML form
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := decodeJSON(r, &req); err != nil {
			s.respondErr(w, err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
			return
		}
		req.Username = r.FormValue("username")
		req.Password = r.FormValue("password")
		req.RememberMe = formBool(r.FormValue("remember_me"))
	}

	session, err := s.auth.Login(r.Context(), req.Username, req.Password, req.RememberMe)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	s.respondJSON(w, http.StatusOK, session)
}

func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())
	if err := s.auth.Logout(r.Context(), claims.Username); err != nil {
		s.log.WithError(err).WithField("username", claims.Username).Warn("Unable to record logout")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Logged out",
	})
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}

	claims := ClaimsFrom(r.Context())
	if err := s.auth.ChangePassword(r.Context(), claims.Username, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		s.respondErr(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Password changed successfully",
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.auth.ListUsers(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, users)
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var nu models.NewUser
	if err := decodeJSON(r, &nu); err != nil {
		s.respondErr(w, err)
		return
	}

	user, err := s.auth.AddUser(r.Context(), ClaimsFrom(r.Context()), nu)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := auth.DefaultLogLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	logs, err := s.auth.LoginLogs(r.Context(), limit)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, logs)
}

func (s *Server) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	records, err := s.exporter.List(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, records)
}

// handleExport takes a JSON array of match objects keyed the way the matching sheets name
// their columns
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var raw []map[string]any
	if err := decodeJSON(r, &raw); err != nil {
		s.respondErr(w, err)
		return
	}
	if len(raw) == 0 {
		s.respondError(w, http.StatusBadRequest, "at least one match is required")
		return
	}

	matches := make([]models.Match, len(raw))
	for i, m := range raw {
		matches[i] = interview.NormalizeMatch(m)
	}

	result, err := s.exporter.Export(r.Context(), matches)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

type outcomeResponse struct {
	Record *models.InterviewRecord `json:"record"`
	Sync   *models.SyncResult      `json:"sync,omitempty"`
}

func (s *Server) handleOutcome(w http.ResponseWriter, r *http.Request) {
	var upd interview.RecordUpdate
	if err := decodeJSON(r, &upd); err != nil {
		s.respondErr(w, err)
		return
	}
	upd.RecordID = chi.URLParam(r, "recordID")
	if strings.TrimSpace(upd.UpdatedBy) == "" {
		upd.UpdatedBy = ClaimsFrom(r.Context()).Username
	}

	rec, sync, err := s.exporter.UpdateOutcome(r.Context(), upd)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, outcomeResponse{Record: rec, Sync: sync})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var outcome models.Outcome
	if err := decodeJSON(r, &outcome); err != nil {
		s.respondErr(w, err)
		return
	}
	if strings.TrimSpace(outcome.CandidateID) == "" && strings.TrimSpace(outcome.CompanyID) == "" {
		s.respondError(w, http.StatusBadRequest, "candidate_id or company_id is required")
		return
	}

	s.respondJSON(w, http.StatusOK, s.sync.Sync(r.Context(), outcome))
}

func (s *Server) handleUsersReport(w http.ResponseWriter, r *http.Request) {
	users, err := s.auth.ListUsers(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondXLSX(w, "users.xlsx", func(out io.Writer) error {
		return export.Users(out, users)
	})
}

func (s *Server) handleLogsReport(w http.ResponseWriter, r *http.Request) {
	logs, err := s.auth.LoginLogs(r.Context(), auth.DefaultLogLimit)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondXLSX(w, "login_logs.xlsx", func(out io.Writer) error {
		return export.LoginLogs(out, logs)
	})
}

func (s *Server) handleInterviewsReport(w http.ResponseWriter, r *http.Request) {
	records, err := s.exporter.List(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondXLSX(w, "interview_records.xlsx", func(out io.Writer) error {
		return export.Interviews(out, records, s.now())
	})
}
