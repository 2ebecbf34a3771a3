// Package api exposes the portal over HTTP
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fmuoria/placement-agency/internal/auth"
	"github.com/fmuoria/placement-agency/internal/interview"
	"github.com/fmuoria/placement-agency/internal/status"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// SessionCookie carries the session token for browser clients
const SessionCookie = "session"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	errAuthRequired = errors.New("authentication required")
	errBadRequest   = errors.New("bad request")
)

type claimsKey struct{}

// Server handles HTTP requests
type Server struct {
	auth     *auth.Service
	tokens   *auth.TokenIssuer
	exporter *interview.Exporter
	sync     *status.Synchronizer
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewServer creates a new API server
func NewServer(authService *auth.Service, tokens *auth.TokenIssuer, exporter *interview.Exporter, sync *status.Synchronizer, log logrus.FieldLogger) *Server {
	return &Server{
		auth:     authService,
		tokens:   tokens,
		exporter: exporter,
		sync:     sync,
		log:      log.WithField("component", "api"),
		now:      time.Now,
	}
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleRoot)
	r.Post("/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Post("/logout", s.handleLogout)
		r.Post("/password", s.handleChangePassword)

		r.Get("/interviews", s.handleListInterviews)
		r.Post("/interviews/export", s.handleExport)
		r.Post("/interviews/{recordID}/outcome", s.handleOutcome)
		r.Post("/status/sync", s.handleSync)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)

			r.Get("/users", s.handleListUsers)
			r.Post("/users", s.handleAddUser)
			r.Get("/logs", s.handleLogs)
			r.Get("/reports/users.xlsx", s.handleUsersReport)
			r.Get("/reports/logs.xlsx", s.handleLogsReport)
			r.Get("/reports/interviews.xlsx", s.handleInterviewsReport)
		})
	})

	return r
}

// handleRoot provides API information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "Placement Agency Portal",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"POST /login":                         "Log in and receive a session token",
			"POST /logout":                        "End the current session",
			"POST /password":                      "Change the current user's password",
			"GET /users":                          "List users (admin)",
			"POST /users":                         "Add a user (admin)",
			"GET /logs":                           "Recent login activity (admin)",
			"GET /interviews":                     "List interview records",
			"POST /interviews/export":             "Export matches to Interview_Records",
			"POST /interviews/{recordID}/outcome": "Record an interview outcome",
			"POST /status/sync":                   "Sync candidate and vacancy status",
			"GET /reports/{name}.xlsx":            "Excel reports: users, logs, interviews (admin)",
			"GET /health":                         "Health check",
		},
	})
}

// handleHealth provides a health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// sessionMiddleware requires a valid session token from the Authorization header or the
// session cookie
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if c, err := r.Cookie(SessionCookie); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			s.respondError(w, http.StatusUnauthorized, errAuthRequired.Error())
			return
		}

		claims, err := s.tokens.Parse(token)
		if err != nil {
			s.respondErr(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// ClaimsFrom returns the session claims placed by the session middleware
func ClaimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims
}

func adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ClaimsFrom(r.Context()).IsAdmin() {
			respondJSON(w, http.StatusForbidden, map[string]string{"error": auth.ErrNotAdmin.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
		}).Info("HTTP request")
	})
}

// statusFor maps service errors to HTTP status codes. Anything unrecognised is a failure
// talking to the spreadsheet.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, auth.ErrMissingCredentials),
		errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, interview.ErrMissingRecordID):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrAccountInactive),
		errors.Is(err, auth.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, interview.ErrRecordNotFound),
		errors.Is(err, status.ErrCandidateNotFound),
		errors.Is(err, status.ErrVacancyNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrUserExists):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) respondErr(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusBadGateway {
		s.log.WithError(err).Error("Spreadsheet request failed")
	}
	s.respondError(w, code, err.Error())
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	if err := respondJSON(w, status, data); err != nil {
		s.log.WithError(err).Error("Failed to encode JSON response")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondXLSX renders a workbook fully before writing, so a render failure can still be
// reported as JSON
func (s *Server) respondXLSX(w http.ResponseWriter, filename string, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		s.log.WithError(err).Error("Failed to render report")
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.log.WithError(err).Warn("Failed to write report")
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}
