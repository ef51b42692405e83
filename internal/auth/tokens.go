// Package auth issues and verifies the stateless credentials used by the
// service. The server keeps no session state: every request re-derives the
// caller from the token claims, and expiry is the only invalidation.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nhle/collab-todo/internal/apperr"
	"github.com/nhle/collab-todo/internal/model"
)

// Audiences keep session and invitation tokens from being swapped.
const (
	audienceSession    = "session"
	audienceInvitation = "invitation"
)

// Default lifetimes.
const (
	DefaultSessionTTL    = 24 * time.Hour
	DefaultInvitationTTL = 7 * 24 * time.Hour
)

// SessionClaims are embedded in a login token.
type SessionClaims struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// InvitationClaims are embedded in an invitation token. They are scoped to
// a single todo and email pair, not to a user.
type InvitationClaims struct {
	TodoID string `json:"todoId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Invitation is the verified content of an invitation token.
type Invitation struct {
	TodoID string
	Email  string
}

// Tokens signs and verifies HS256 credentials.
type Tokens struct {
	secret        []byte
	sessionTTL    time.Duration
	invitationTTL time.Duration
	now           func() time.Time
}

// Option configures Tokens.
type Option func(*Tokens)

// WithSessionTTL overrides the login token lifetime.
func WithSessionTTL(d time.Duration) Option {
	return func(t *Tokens) {
		if d > 0 {
			t.sessionTTL = d
		}
	}
}

// WithInvitationTTL overrides the invitation token lifetime.
func WithInvitationTTL(d time.Duration) Option {
	return func(t *Tokens) {
		if d > 0 {
			t.invitationTTL = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tokens) { t.now = now }
}

// NewTokens returns a token service signing with secret.
func NewTokens(secret string, opts ...Option) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	t := &Tokens{
		secret:        []byte(secret),
		sessionTTL:    DefaultSessionTTL,
		invitationTTL: DefaultInvitationTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// SessionTTL returns the configured login token lifetime.
func (t *Tokens) SessionTTL() time.Duration {
	return t.sessionTTL
}

// IssueSession returns a signed login token for id.
func (t *Tokens) IssueSession(id model.Identity) (string, error) {
	now := t.now()
	claims := SessionClaims{
		UserID:   id.UserID,
		UserName: id.UserName,
		Email:    id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Audience:  jwt.ClaimStrings{audienceSession},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.sessionTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// VerifySession validates a login token and returns the identity it
// carries. Any failure is Unauthenticated.
func (t *Tokens) VerifySession(token string) (model.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return model.Identity{}, apperr.Unauthenticated("Unauthorized: no token provided", nil)
	}

	var claims SessionClaims
	if err := t.parse(token, audienceSession, &claims); err != nil {
		return model.Identity{}, apperr.Unauthenticated("Invalid or expired token", err)
	}
	if claims.UserID == "" {
		return model.Identity{}, apperr.Unauthenticated("Invalid or expired token", errors.New("missing user id"))
	}

	return model.Identity{
		UserID:   claims.UserID,
		UserName: claims.UserName,
		Email:    claims.Email,
	}, nil
}

// IssueInvitation returns a signed invitation token for the todo and email.
func (t *Tokens) IssueInvitation(todoID, email string) (string, error) {
	now := t.now()
	claims := InvitationClaims{
		TodoID: todoID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{audienceInvitation},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.invitationTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing invitation token: %w", err)
	}
	return signed, nil
}

// VerifyInvitation validates an invitation token.
func (t *Tokens) VerifyInvitation(token string) (Invitation, error) {
	var claims InvitationClaims
	if err := t.parse(token, audienceInvitation, &claims); err != nil {
		return Invitation{}, apperr.Unauthenticated("Invalid or expired token", err)
	}
	if claims.TodoID == "" || claims.Email == "" {
		return Invitation{}, apperr.Unauthenticated("Invalid or expired token", errors.New("incomplete invitation claims"))
	}
	return Invitation{TodoID: claims.TodoID, Email: claims.Email}, nil
}

func (t *Tokens) parse(token, audience string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return fmt.Errorf("parsing %s token: %w", audience, err)
	}
	return nil
}
