package auth

import (
	"testing"
	"time"

	"github.com/fmuoria/placement-agency/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_IssueAndParse(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("super-secret"), time.Hour, 24*time.Hour)
	user := models.User{Username: "alice", Role: models.RoleAdmin, FullName: "Alice A", Email: "a@example.com"}

	tok, expires, err := issuer.Issue(user, false)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := issuer.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "Alice A", claims.FullName)
	assert.True(t, claims.IsAdmin())
	assert.NotEmpty(t, claims.ID)
}

func TestTokenIssuer_RememberMeUsesLongerTTL(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("k"), time.Hour, 48*time.Hour)

	_, expires, err := issuer.Issue(models.User{Username: "bob"}, true)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), expires, 5*time.Second)
}

func TestTokenIssuer_Expired(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("k"), time.Hour, time.Hour)
	tok, _, err := issuer.Issue(models.User{Username: "bob"}, false)
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = issuer.Parse(tok)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, _, err := NewTokenIssuer([]byte("right"), time.Hour, time.Hour).Issue(models.User{Username: "u"}, false)
	require.NoError(t, err)

	_, err = NewTokenIssuer([]byte("wrong"), time.Hour, time.Hour).Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Malformed(t *testing.T) {
	t.Parallel()

	_, err := NewTokenIssuer([]byte("k"), time.Hour, time.Hour).Parse("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaims_IsAdminNil(t *testing.T) {
	var c *Claims
	assert.False(t, c.IsAdmin())
}
