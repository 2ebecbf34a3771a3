// Package auth is the portal's login gate. Users live in the Users worksheet with a SHA-256
// password hash; every login attempt is appended to Login_Logs.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fmuoria/placement-agency/internal/models"
	"github.com/fmuoria/placement-agency/internal/sheets"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountInactive    = errors.New("account has been deactivated")
	ErrMissingCredentials = errors.New("username and password are required")
	ErrMissingFields      = errors.New("username, password and full name are required")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordMismatch   = errors.New("new passwords do not match")
	ErrInvalidRole        = errors.New("invalid role")
	ErrUserExists         = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotAdmin           = errors.New("admin privileges required")
)

// Login_Logs status values
const (
	OutcomeSuccess            = "Success"
	OutcomeInvalidCredentials = "Failed - Invalid Credentials"
	OutcomeDeactivated        = "Failed - Deactivated"
	OutcomeMissingFields      = "Failed - Missing Fields"
	OutcomeLogout             = "Logout"
	OutcomePasswordChanged    = "Password Changed"
)

const (
	MinPasswordLength = 6
	// DefaultLogLimit is how many login log rows the admin view shows
	DefaultLogLimit = 50
	// unknownIP fills the IP Address column; the portal does not record client addresses
	unknownIP = "N/A"

	timestampLayout = "2006-01-02 15:04:05"
	dateLayout      = "2006-01-02"
)

var allowedRoles = []string{models.RoleAdmin, models.RoleRecruiter, models.RoleViewer}

var userFields = []sheets.Field{
	sheets.Required("Username"),
	sheets.Required("Password"),
	sheets.Required("Role"),
	sheets.Optional("Full Name"),
	sheets.Optional("Email"),
	sheets.Optional("Status"),
	sheets.Optional("Created Date"),
}

var logFields = []sheets.Field{
	sheets.Required("Timestamp"),
	sheets.Required("Username"),
	sheets.Required("Status"),
	sheets.Optional("IP Address"),
}

// Session is the result of a successful login
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// Service authenticates users and manages the Users worksheet
type Service struct {
	client sheets.Client
	tokens *TokenIssuer
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewService creates an auth service over the spreadsheet client
func NewService(client sheets.Client, tokens *TokenIssuer, log logrus.FieldLogger) *Service {
	return &Service{
		client: client,
		tokens: tokens,
		log:    log.WithField("component", "auth"),
		now:    time.Now,
	}
}

// HashPassword returns the lowercase hex SHA-256 of password, the format stored in Users
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// userTable is one read of the Users worksheet
type userTable struct {
	cols  sheets.Columns
	users []models.User
	rows  []int // sheet row number of each user
}

func (t *userTable) find(username string) (int, bool) {
	want := strings.TrimSpace(username)
	for i, u := range t.users {
		if strings.EqualFold(strings.TrimSpace(u.Username), want) {
			return i, true
		}
	}
	return 0, false
}

func (s *Service) loadUsers(ctx context.Context) (*userTable, error) {
	values, err := s.client.Values(ctx, sheets.TabUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: %w", sheets.TabUsers, sheets.ErrEmptySheet)
	}

	cols, err := sheets.ResolveColumns(values[0], userFields...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sheets.TabUsers, err)
	}

	table := &userTable{cols: cols}
	for i, row := range values[1:] {
		username := cols.Get(row, "Username")
		if strings.TrimSpace(username) == "" {
			continue
		}

		u := models.User{
			Username:     username,
			PasswordHash: cols.Get(row, "Password"),
			Role:         cols.Get(row, "Role"),
			FullName:     cols.Get(row, "Full Name"),
			Email:        cols.Get(row, "Email"),
			Status:       cols.Get(row, "Status"),
			CreatedDate:  cols.Get(row, "Created Date"),
		}
		if u.FullName == "" {
			u.FullName = username
		}
		if !cols.Has("Status") {
			u.Status = models.UserStatusActive
		}

		table.users = append(table.users, u)
		table.rows = append(table.rows, i+2)
	}
	return table, nil
}

// VerifyCredentials returns the user when username matches case-insensitively, the SHA-256
// of password equals the stored hash exactly, and the account is active.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) (*models.User, error) {
	table, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	idx, ok := table.find(username)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	user := table.users[idx]

	if subtle.ConstantTimeCompare([]byte(user.PasswordHash), []byte(HashPassword(password))) != 1 {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrAccountInactive
	}

	return &user, nil
}

// Login verifies credentials, records the attempt and issues a session token
func (s *Service) Login(ctx context.Context, username, password string, rememberMe bool) (*Session, error) {
	log := s.log.WithField("username", username)

	if strings.TrimSpace(username) == "" || password == "" {
		s.recordAttempt(ctx, username, OutcomeMissingFields)
		return nil, ErrMissingCredentials
	}

	user, err := s.VerifyCredentials(ctx, username, password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		log.Info("Login rejected: invalid credentials")
		s.recordAttempt(ctx, username, OutcomeInvalidCredentials)
		return nil, err
	case errors.Is(err, ErrAccountInactive):
		log.Info("Login rejected: account deactivated")
		s.recordAttempt(ctx, username, OutcomeDeactivated)
		return nil, err
	case err != nil:
		log.WithError(err).Error("Unable to verify credentials")
		return nil, err
	}

	token, expires, err := s.tokens.Issue(*user, rememberMe)
	if err != nil {
		return nil, err
	}

	s.recordAttempt(ctx, username, OutcomeSuccess)
	log.WithField("role", user.Role).Info("Login succeeded")

	user.PasswordHash = ""
	return &Session{Token: token, ExpiresAt: expires, User: *user}, nil
}

// Logout records the end of a session
func (s *Service) Logout(ctx context.Context, username string) error {
	if username == "" {
		username = "Unknown"
	}
	return s.appendLog(ctx, username, OutcomeLogout)
}

// ChangePassword replaces a user's password after re-verifying the current one
func (s *Service) ChangePassword(ctx context.Context, username, current, newPassword, confirm string) error {
	if _, err := s.VerifyCredentials(ctx, username, current); err != nil {
		return err
	}
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}
	if newPassword != confirm {
		return ErrPasswordMismatch
	}

	table, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	idx, ok := table.find(username)
	if !ok {
		return ErrUserNotFound
	}

	cell, _ := table.cols.Cell(table.rows[idx], "Password", HashPassword(newPassword))
	if err := s.client.UpdateCells(ctx, sheets.TabUsers, []sheets.Cell{cell}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.log.WithField("username", username).Info("Password changed")
	s.recordAttempt(ctx, username, OutcomePasswordChanged)
	return nil
}

// AddUser appends a new active user. Only admins may add users.
func (s *Service) AddUser(ctx context.Context, actor *Claims, nu models.NewUser) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}

	username := strings.TrimSpace(nu.Username)
	fullName := strings.TrimSpace(nu.FullName)
	if username == "" || nu.Password == "" || fullName == "" {
		return nil, ErrMissingFields
	}
	if len(nu.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	role, err := normalizeRole(nu.Role)
	if err != nil {
		return nil, err
	}

	table, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	if _, exists := table.find(username); exists {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, username)
	}

	user := models.User{
		Username:    username,
		Role:        role,
		FullName:    fullName,
		Email:       strings.TrimSpace(nu.Email),
		Status:      models.UserStatusActive,
		CreatedDate: s.now().Format(dateLayout),
	}
	row := table.cols.Row(map[string]string{
		"Username":     user.Username,
		"Password":     HashPassword(nu.Password),
		"Role":         user.Role,
		"Full Name":    user.FullName,
		"Email":        user.Email,
		"Status":       user.Status,
		"Created Date": user.CreatedDate,
	})
	if err := s.client.AppendRows(ctx, sheets.TabUsers, [][]string{row}); err != nil {
		return nil, fmt.Errorf("failed to add user: %w", err)
	}

	s.log.WithFields(logrus.Fields{"admin": actor.Username, "username": username, "role": role}).Info("User added")
	s.recordAttempt(ctx, actor.Username, "Added user: "+username)
	return &user, nil
}

func normalizeRole(role string) (string, error) {
	r := strings.ToUpper(strings.TrimSpace(role))
	for _, allowed := range allowedRoles {
		if r == allowed {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w %q, want one of %s", ErrInvalidRole, role, strings.Join(allowedRoles, ", "))
}

// ListUsers returns every user without password hashes
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	table, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, len(table.users))
	for i, u := range table.users {
		u.PasswordHash = ""
		users[i] = u
	}
	return users, nil
}

// LoginLogs returns the last limit rows of Login_Logs, newest first
func (s *Service) LoginLogs(ctx context.Context, limit int) ([]models.LoginLog, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}

	values, err := s.client.Values(ctx, sheets.TabLoginLogs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch login logs: %w", err)
	}
	if len(values) < 2 {
		return []models.LoginLog{}, nil
	}

	cols, err := sheets.ResolveColumns(values[0], logFields...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sheets.TabLoginLogs, err)
	}

	rows := values[1:]
	if len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}

	// Login_Logs is append-only, so walking the tail backwards is newest first
	logs := make([]models.LoginLog, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		logs = append(logs, models.LoginLog{
			Timestamp: cols.Get(row, "Timestamp"),
			Username:  cols.Get(row, "Username"),
			Status:    cols.Get(row, "Status"),
			IPAddress: cols.Get(row, "IP Address"),
		})
	}

	return logs, nil
}

// recordAttempt appends to Login_Logs. A failed log write never fails the caller.
func (s *Service) recordAttempt(ctx context.Context, username, outcome string) {
	if err := s.appendLog(ctx, username, outcome); err != nil {
		s.log.WithError(err).WithField("username", username).Warn("Unable to record login activity")
	}
}

func (s *Service) appendLog(ctx context.Context, username, outcome string) error {
	values, err := s.client.Values(ctx, sheets.TabLoginLogs)
	if err != nil {
		return fmt.Errorf("failed to read login logs: %w", err)
	}
	if len(values) == 0 {
		return fmt.Errorf("%s: %w", sheets.TabLoginLogs, sheets.ErrEmptySheet)
	}

	cols, err := sheets.ResolveColumns(values[0], logFields...)
	if err != nil {
		return fmt.Errorf("%s: %w", sheets.TabLoginLogs, err)
	}

	row := cols.Row(map[string]string{
		"Timestamp":  s.now().Format(timestampLayout),
		"Username":   username,
		"Status":     outcome,
		"IP Address": unknownIP,
	})
	if err := s.client.AppendRows(ctx, sheets.TabLoginLogs, [][]string{row}); err != nil {
		return fmt.Errorf("failed to append login log: %w", err)
	}
	return nil
}
