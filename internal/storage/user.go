package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pennywise/internal/core"

	"github.com/google/uuid"
)

const userColumns = `user_id, email, name, password_hash, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUser inserts a new user. The email is unique among live users;
// a duplicate fails with core.ErrEmailTaken.
func (r *Repository) CreateUser(ctx context.Context, email, name, passwordHash string) (core.User, error) {
	now := r.now()
	u := core.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, email, name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE email = ? AND deleted_at IS NULL`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *Repository) FindUser(ctx context.Context, id string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE user_id = ? AND deleted_at IS NULL`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// CreateSession stores an opaque bearer token for the user.
func (r *Repository) CreateSession(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		token, userID, expiresAt.UTC(), r.now())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// UserBySession resolves a bearer token to its live, unexpired user.
func (r *Repository) UserBySession(ctx context.Context, token string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT u.user_id, u.email, u.name, u.password_hash, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.user_id = s.user_id
		WHERE s.token = ? AND s.expires_at > ? AND u.deleted_at IS NULL`,
		token, r.now())
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("resolve session: %w", err)
	}
	return u, nil
}

// DeleteSession revokes a token. Deleting an unknown token is not an error.
func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
