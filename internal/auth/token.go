package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/fmuoria/placement-agency/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid session token")
	ErrSessionExpired = errors.New("session expired")
)

// Claims identify the logged-in user inside a session token
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
}

// IsAdmin reports whether the session belongs to an ADMIN
func (c *Claims) IsAdmin() bool {
	return c != nil && models.IsAdminRole(c.Role)
}

// TokenIssuer signs and verifies HS256 session tokens
type TokenIssuer struct {
	secret        []byte
	ttl           time.Duration
	rememberMeTTL time.Duration
	now           func() time.Time
}

// NewTokenIssuer creates an issuer. rememberMeTTL applies when the user asks to be remembered.
func NewTokenIssuer(secret []byte, ttl, rememberMeTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:        secret,
		ttl:           ttl,
		rememberMeTTL: rememberMeTTL,
		now:           time.Now,
	}
}

// Issue mints a session token for user
func (t *TokenIssuer) Issue(user models.User, rememberMe bool) (string, time.Time, error) {
	validity := t.ttl
	if rememberMe {
		validity = t.rememberMeTTL
	}

	now := t.now()
	expires := now.Add(validity)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Username: user.Username,
		Role:     user.Role,
		FullName: user.FullName,
		Email:    user.Email,
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies a session token and returns its claims
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
