/*
Package auth resolves who is acting on a request.

PURPOSE:
  Users identify themselves with a handle and a short numeric PIN. The first
  login with an unknown handle creates the account; later logins must repeat
  the PIN. A successful login yields a signed session token the HTTP layer
  stores in a cookie.

THREAT MODEL:
  A PIN of at most four digits is a deterrent on a shared device, not a
  security credential. It is still stored only as a bcrypt hash.

KEY CONCEPTS:
  - User: handle (lowercased) + PIN hash
  - PINAuthenticator: login-or-register against a UserStore
  - SessionManager: issues and validates HS256 session tokens
  - WithUserID / UserIDFrom: request-scoped acting user

SEE ALSO:
  - api/middleware.go: RequireUser resolves the cookie on every request
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/warp/pocket-ledger/generic"
	"golang.org/x/crypto/bcrypt"
)

var pinPattern = regexp.MustCompile(`^\d{1,4}$`)

// User is an account. Username is unique and always lowercase.
type User struct {
	ID        generic.UserID
	Username  string
	PINHash   string
	CreatedAt time.Time
}

// UserStore is the persistence the authenticator needs.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id generic.UserID) (*User, error)
}

// NormalizeUsername trims and lowercases a handle.
func NormalizeUsername(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", generic.Invalid("username", "is required")
	}
	return s, nil
}

// ValidatePIN accepts one to four decimal digits.
func ValidatePIN(pin string) error {
	if pin == "" {
		return generic.Invalid("pin", "is required")
	}
	if !pinPattern.MatchString(pin) {
		return generic.Invalid("pin", "must be at most 4 digits")
	}
	return nil
}

// PINAuthenticator implements login-or-register with bcrypt PIN hashes.
type PINAuthenticator struct {
	users UserStore
	cost  int
	now   func() time.Time
}

func NewPINAuthenticator(users UserStore) *PINAuthenticator {
	return &PINAuthenticator{users: users, cost: bcrypt.DefaultCost, now: time.Now}
}

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func (a *PINAuthenticator) WithCost(cost int) *PINAuthenticator {
	a.cost = cost
	return a
}

// Register creates a user, failing if the handle is taken.
func (a *PINAuthenticator) Register(ctx context.Context, username, pin string) (*User, error) {
	username, err := NormalizeUsername(username)
	if err != nil {
		return nil, err
	}
	if err := ValidatePIN(pin); err != nil {
		return nil, err
	}

	if _, err := a.users.GetUserByUsername(ctx, username); err == nil {
		return nil, generic.Invalid("username", "is already taken")
	} else if !errors.Is(err, generic.ErrNotFound) {
		return nil, err
	}

	return a.create(ctx, username, pin)
}

// LoginOrRegister returns the user behind username, creating it when the
// handle is unknown. created reports which of the two happened. A known
// handle with a different PIN fails with generic.ErrWrongPIN.
func (a *PINAuthenticator) LoginOrRegister(ctx context.Context, username, pin string) (user *User, created bool, err error) {
	username, err = NormalizeUsername(username)
	if err != nil {
		return nil, false, err
	}
	if err := ValidatePIN(pin); err != nil {
		return nil, false, err
	}

	existing, err := a.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		if bcrypt.CompareHashAndPassword([]byte(existing.PINHash), []byte(pin)) != nil {
			return nil, false, generic.ErrWrongPIN
		}
		return existing, false, nil
	case errors.Is(err, generic.ErrNotFound):
		user, err := a.create(ctx, username, pin)
		if err != nil {
			return nil, false, err
		}
		return user, true, nil
	default:
		return nil, false, err
	}
}

func (a *PINAuthenticator) create(ctx context.Context, username, pin string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), a.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash PIN: %w", err)
	}
	user := &User{Username: username, PINHash: string(hash), CreatedAt: a.now()}
	if err := a.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}
