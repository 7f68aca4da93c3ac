package sqlite

import (
	"context"
	"fmt"

	"github.com/warp/pocket-ledger/auth"
	"github.com/warp/pocket-ledger/generic"
)

// =============================================================================
// USERS (auth.UserStore interface)
// =============================================================================

// CreateUser inserts u, assigning an ID when empty. A taken username is a
// validation error.
func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	if u.ID == "" {
		u.ID = generic.UserID(newID())
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO users (id, username, pin_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, u.ID, u.Username, u.PINHash, generic.FormatStorage(u.CreatedAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.Invalid("username", "is already taken")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*auth.User, error) {
	return s.getUser(ctx, "username = ?", username)
}

func (s *Store) GetUserByID(ctx context.Context, id generic.UserID) (*auth.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*auth.User, error) {
	var (
		u         auth.User
		createdAt string
	)
	err := s.q.QueryRowContext(ctx,
		"SELECT id, username, pin_hash, created_at FROM users WHERE "+where, arg,
	).Scan(&u.ID, &u.Username, &u.PINHash, &createdAt)
	if err != nil {
		return nil, notFound(err, "get user")
	}
	u.CreatedAt = generic.ParseStorage(createdAt)
	return &u, nil
}
