package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fmuoria/placement-agency/internal/logger"
	"github.com/fmuoria/placement-agency/internal/models"
	"github.com/fmuoria/placement-agency/internal/sheets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, users [][]string) (*Service, *sheets.MemoryClient) {
	t.Helper()

	store := sheets.NewSeededMemoryClient()
	if users != nil {
		store.SetValues(sheets.TabUsers, append([][]string{sheets.DefaultHeaders[sheets.TabUsers]}, users...))
	}

	svc := NewService(store, NewTokenIssuer([]byte("test-secret"), time.Hour, 24*time.Hour), logger.Discard())
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func userRow(username, password, role, status string) []string {
	return []string{username, HashPassword(password), role, username + " Full", username + "@example.com", status, "2025-01-01"}
}

func loginLogs(t *testing.T, store *sheets.MemoryClient) [][]string {
	t.Helper()
	values, err := store.Values(context.Background(), sheets.TabLoginLogs)
	require.NoError(t, err)
	return values[1:]
}

func TestHashPassword(t *testing.T) {
	// sha256("secret123")
	assert.Equal(t, "fcf730b6d95236ecd3c9fc2d92d7b6b2bb061514961aec041d6c7a7192f592e4", HashPassword("secret123"))
}

func TestVerifyCredentials(t *testing.T) {
	svc, _ := newTestService(t, [][]string{
		userRow("Alice", "secret123", models.RoleAdmin, "Active"),
		userRow("bob", "hunter22", models.RoleRecruiter, "Inactive"),
	})
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "Correct credentials", username: "Alice", password: "secret123"},
		{name: "Username is case-insensitive", username: "aLiCe", password: "secret123"},
		{name: "Wrong password", username: "Alice", password: "secret124", wantErr: ErrInvalidCredentials},
		{name: "Unknown user", username: "carol", password: "secret123", wantErr: ErrInvalidCredentials},
		{name: "Inactive user with correct password", username: "bob", password: "hunter22", wantErr: ErrAccountInactive},
		{name: "Inactive user with wrong password", username: "bob", password: "nope", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.VerifyCredentials(ctx, tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Alice", user.Username)
			assert.Equal(t, models.RoleAdmin, user.Role)
			assert.Equal(t, "Alice Full", user.FullName)
			assert.Equal(t, "Alice@example.com", user.Email)
		})
	}
}

func TestVerifyCredentials_MissingOptionalColumnsUseDefaults(t *testing.T) {
	svc, store := newTestService(t, nil)
	store.SetValues(sheets.TabUsers, [][]string{
		{"Role", "Password", "Username"},
		{"VIEWER", HashPassword("secret123"), "dave"},
	})

	user, err := svc.VerifyCredentials(context.Background(), "dave", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "dave", user.FullName)
	assert.Equal(t, models.UserStatusActive, user.Status)
}

func TestVerifyCredentials_MissingRequiredColumn(t *testing.T) {
	svc, store := newTestService(t, nil)
	store.SetValues(sheets.TabUsers, [][]string{{"Username", "Role"}, {"dave", "VIEWER"}})

	_, err := svc.VerifyCredentials(context.Background(), "dave", "secret123")
	assert.ErrorIs(t, err, sheets.ErrMissingColumns)
}

func TestLogin_RecordsEveryAttempt(t *testing.T) {
	svc, store := newTestService(t, [][]string{
		userRow("alice", "secret123", models.RoleAdmin, "Active"),
		userRow("bob", "hunter22", models.RoleViewer, "Inactive"),
	})
	ctx := context.Background()

	session, err := svc.Login(ctx, "alice", "secret123", false)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Empty(t, session.User.PasswordHash)

	_, err = svc.Login(ctx, "alice", "wrong-pass", false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "bob", "hunter22", false)
	assert.ErrorIs(t, err, ErrAccountInactive)

	_, err = svc.Login(ctx, "alice", "", false)
	assert.ErrorIs(t, err, ErrMissingCredentials)

	assert.Equal(t, [][]string{
		{"2025-06-01 09:30:00", "alice", OutcomeSuccess, "N/A"},
		{"2025-06-01 09:30:00", "alice", OutcomeInvalidCredentials, "N/A"},
		{"2025-06-01 09:30:00", "bob", OutcomeDeactivated, "N/A"},
		{"2025-06-01 09:30:00", "alice", OutcomeMissingFields, "N/A"},
	}, loginLogs(t, store))
}

func TestLogin_TokenCarriesUser(t *testing.T) {
	svc, _ := newTestService(t, [][]string{userRow("alice", "secret123", models.RoleAdmin, "active")})

	session, err := svc.Login(context.Background(), "ALICE", "secret123", true)
	require.NoError(t, err)

	claims, err := svc.tokens.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, claims.IsAdmin())
}

type failingClient struct {
	sheets.Client
	err error
}

func (f failingClient) Values(context.Context, string) ([][]string, error) { return nil, f.err }

func TestLogin_StoreFailureIsNotReportedAsBadPassword(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewService(failingClient{err: boom}, NewTokenIssuer([]byte("k"), time.Hour, time.Hour), logger.Discard())

	_, err := svc.Login(context.Background(), "alice", "secret123", false)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, store := newTestService(t, [][]string{userRow("alice", "secret123", models.RoleAdmin, "Active")})

		require.NoError(t, svc.ChangePassword(ctx, "Alice", "secret123", "newpass1", "newpass1"))

		_, err := svc.VerifyCredentials(ctx, "alice", "secret123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = svc.VerifyCredentials(ctx, "alice", "newpass1")
		assert.NoError(t, err)

		logs := loginLogs(t, store)
		require.Len(t, logs, 1)
		assert.Equal(t, OutcomePasswordChanged, logs[0][2])
	})

	tests := []struct {
		name    string
		current string
		newPass string
		confirm string
		wantErr error
	}{
		{name: "Wrong current password", current: "nope", newPass: "newpass1", confirm: "newpass1", wantErr: ErrInvalidCredentials},
		{name: "Too short", current: "secret123", newPass: "abc", confirm: "abc", wantErr: ErrWeakPassword},
		{name: "Confirmation mismatch", current: "secret123", newPass: "newpass1", confirm: "newpass2", wantErr: ErrPasswordMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, [][]string{userRow("alice", "secret123", models.RoleAdmin, "Active")})

			err := svc.ChangePassword(ctx, "alice", tt.current, tt.newPass, tt.confirm)
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = svc.VerifyCredentials(ctx, "alice", "secret123")
			assert.NoError(t, err, "password must be unchanged")
		})
	}
}

func TestChangePassword_PasswordColumnResolvedByHeader(t *testing.T) {
	svc, store := newTestService(t, nil)
	store.SetValues(sheets.TabUsers, [][]string{
		{"Email", "Username", "Role", "Password"},
		{"a@example.com", "alice", "ADMIN", HashPassword("secret123")},
	})
	ctx := context.Background()

	require.NoError(t, svc.ChangePassword(ctx, "alice", "secret123", "newpass1", "newpass1"))

	values, err := store.Values(ctx, sheets.TabUsers)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "alice", "ADMIN", HashPassword("newpass1")}, values[1])
}

func TestAddUser(t *testing.T) {
	admin := &Claims{Username: "root", Role: "admin"}
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, store := newTestService(t, [][]string{userRow("alice", "secret123", models.RoleAdmin, "Active")})

		user, err := svc.AddUser(ctx, admin, models.NewUser{
			Username: " john.doe ", Password: "secret99", Role: "recruiter", FullName: "John Doe", Email: "john@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, models.RoleRecruiter, user.Role)

		values, err := store.Values(ctx, sheets.TabUsers)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"john.doe", HashPassword("secret99"), "RECRUITER", "John Doe", "john@example.com", "Active", "2025-06-01",
		}, values[2])

		logs := loginLogs(t, store)
		require.Len(t, logs, 1)
		assert.Equal(t, []string{"2025-06-01 09:30:00", "root", "Added user: john.doe", "N/A"}, logs[0])

		_, err = svc.VerifyCredentials(ctx, "JOHN.DOE", "secret99")
		assert.NoError(t, err)
	})

	tests := []struct {
		name    string
		actor   *Claims
		user    models.NewUser
		wantErr error
	}{
		{name: "Non-admin", actor: &Claims{Username: "r", Role: models.RoleRecruiter},
			user: models.NewUser{Username: "x", Password: "secret99", Role: "VIEWER", FullName: "X"}, wantErr: ErrNotAdmin},
		{name: "No actor", actor: nil,
			user: models.NewUser{Username: "x", Password: "secret99", Role: "VIEWER", FullName: "X"}, wantErr: ErrNotAdmin},
		{name: "Missing full name", actor: admin,
			user: models.NewUser{Username: "x", Password: "secret99", Role: "VIEWER"}, wantErr: ErrMissingFields},
		{name: "Short password", actor: admin,
			user: models.NewUser{Username: "x", Password: "12345", Role: "VIEWER", FullName: "X"}, wantErr: ErrWeakPassword},
		{name: "Unknown role", actor: admin,
			user: models.NewUser{Username: "x", Password: "secret99", Role: "OWNER", FullName: "X"}, wantErr: ErrInvalidRole},
		{name: "Duplicate username ignoring case", actor: admin,
			user: models.NewUser{Username: "ALICE", Password: "secret99", Role: "VIEWER", FullName: "X"}, wantErr: ErrUserExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t, [][]string{userRow("alice", "secret123", models.RoleAdmin, "Active")})

			_, err := svc.AddUser(ctx, tt.actor, tt.user)
			assert.ErrorIs(t, err, tt.wantErr)

			values, err := store.Values(ctx, sheets.TabUsers)
			require.NoError(t, err)
			assert.Len(t, values, 2, "no row should be appended")
		})
	}
}

func TestListUsers_HidesHashes(t *testing.T) {
	svc, _ := newTestService(t, [][]string{
		userRow("alice", "secret123", models.RoleAdmin, "Active"),
		{"", "", "", "", "", "", ""},
		userRow("bob", "hunter22", models.RoleViewer, "Inactive"),
	})

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}
}

func TestLoginLogs_LastRowsNewestFirst(t *testing.T) {
	svc, store := newTestService(t, nil)
	rows := [][]string{sheets.DefaultHeaders[sheets.TabLoginLogs]}
	for _, ts := range []string{"2025-01-01 10:00:00", "2025-01-02 10:00:00", "2025-01-03 10:00:00", "2025-01-04 10:00:00"} {
		rows = append(rows, []string{ts, "alice", OutcomeSuccess, "N/A"})
	}
	store.SetValues(sheets.TabLoginLogs, rows)

	logs, err := svc.LoginLogs(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "2025-01-04 10:00:00", logs[0].Timestamp)
	assert.Equal(t, "2025-01-03 10:00:00", logs[1].Timestamp)
	assert.Equal(t, "2025-01-02 10:00:00", logs[2].Timestamp)
}

func TestLoginLogs_SameSecondKeepsAppendOrder(t *testing.T) {
	svc, store := newTestService(t, nil)
	store.SetValues(sheets.TabLoginLogs, [][]string{
		sheets.DefaultHeaders[sheets.TabLoginLogs],
		{"2025-06-01 09:30:00", "alice", OutcomeInvalidCredentials, "N/A"},
		{"2025-06-01 09:30:00", "alice", OutcomeSuccess, "N/A"},
		{"2025-06-01 09:30:00", "alice", OutcomeLogout, "N/A"},
	})

	logs, err := svc.LoginLogs(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, OutcomeLogout, logs[0].Status)
	assert.Equal(t, OutcomeSuccess, logs[1].Status)
	assert.Equal(t, OutcomeInvalidCredentials, logs[2].Status)
}

func TestLoginLogs_Empty(t *testing.T) {
	svc, _ := newTestService(t, nil)

	logs, err := svc.LoginLogs(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestLogout(t *testing.T) {
	svc, store := newTestService(t, nil)

	require.NoError(t, svc.Logout(context.Background(), ""))

	logs := loginLogs(t, store)
	require.Len(t, logs, 1)
	assert.Equal(t, []string{"2025-06-01 09:30:00", "Unknown", OutcomeLogout, "N/A"}, logs[0])
}
