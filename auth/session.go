package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/warp/pocket-ledger/generic"
)

// SessionLifetime is both the token expiry and the cookie max age.
const SessionLifetime = 30 * 24 * time.Hour

var ErrInvalidSession = errors.New("invalid or expired session")

// Claims is the payload of a session token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SessionManager signs and verifies session tokens. Sessions are not
// tracked server-side: logging out only clears the client cookie.
type SessionManager struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

func NewSessionManager(secret string) *SessionManager {
	return &SessionManager{secret: []byte(secret), lifetime: SessionLifetime, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (m *SessionManager) WithClock(now func() time.Time) *SessionManager {
	m.now = now
	return m
}

// Lifetime is how long an issued token stays valid.
func (m *SessionManager) Lifetime() time.Duration { return m.lifetime }

// Issue creates a token for user.
func (m *SessionManager) Issue(user *User) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID:   string(user.ID),
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(user.ID),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return token, nil
}

// Validate returns the claims of a well-signed, unexpired token.
func (m *SessionManager) Validate(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// =============================================================================
// REQUEST CONTEXT
// =============================================================================

type contextKey struct{}

// WithUserID returns a context carrying the acting user.
func WithUserID(ctx context.Context, id generic.UserID) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// UserIDFrom returns the acting user, or false when the request is anonymous.
func UserIDFrom(ctx context.Context) (generic.UserID, bool) {
	id, ok := ctx.Value(contextKey{}).(generic.UserID)
	return id, ok && id != ""
}
