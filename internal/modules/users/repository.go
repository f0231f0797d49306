package users

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/akeil/stashd/internal/database"
	"github.com/akeil/stashd/internal/domain"
)

const userColumns = `id, user_login, password_hash, role, is_active, created_at, modified_at`

// Repository handles users database operations.
type Repository struct {
	log zerolog.Logger
}

// NewRepository creates a new users repository.
func NewRepository(log zerolog.Logger) *Repository {
	return &Repository{
		log: log.With().Str("repository", "users").Logger(),
	}
}

// Create inserts a new active user.
func (r *Repository) Create(ctx context.Context, q database.Queryer, login, passwordHash string, role domain.UserRole) (*User, error) {
	now := time.Now().UTC()
	res, err := q.ExecContext(ctx, `
		INSERT INTO users (user_login, password_hash, role, is_active, created_at, modified_at)
		VALUES (?, ?, ?, 1, ?, ?)
	`, login, passwordHash, string(role), now.UnixNano(), now.UnixNano())
	if err != nil {
		return nil, database.TranslateError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &User{
		ID:           id,
		Login:        login,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		ModifiedAt:   now,
		passwordHash: passwordHash,
	}, nil
}

// GetByID retrieves one active user.
func (r *Repository) GetByID(ctx context.Context, q database.Queryer, id int64) (*User, error) {
	row := q.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM users WHERE id = ? AND is_active = 1
	`, userColumns), id)
	return scanUser(row, id)
}

// GetByLogin retrieves one active user by login name.
func (r *Repository) GetByLogin(ctx context.Context, q database.Queryer, login string) (*User, error) {
	row := q.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM users WHERE user_login = ? AND is_active = 1
	`, userColumns), login)

	u, err := scanUserRow(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %q", domain.ErrNotFound, login)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by login: %w", err)
	}
	return u, nil
}

// UpdateLogin renames an active user.
func (r *Repository) UpdateLogin(ctx context.Context, q database.Queryer, id int64, login string, now time.Time) error {
	res, err := q.ExecContext(ctx, `
		UPDATE users SET user_login = ?, modified_at = ? WHERE id = ? AND is_active = 1
	`, login, now.UnixNano(), id)
	if err != nil {
		return database.TranslateError(err)
	}
	return requireAffected(res, id)
}

// UpdatePasswordHash replaces the stored bcrypt hash of an active user.
func (r *Repository) UpdatePasswordHash(ctx context.Context, q database.Queryer, id int64, passwordHash string, now time.Time) error {
	res, err := q.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, modified_at = ? WHERE id = ? AND is_active = 1
	`, passwordHash, now.UnixNano(), id)
	if err != nil {
		return database.TranslateError(err)
	}
	return requireAffected(res, id)
}

// Deactivate soft-deletes a user.
func (r *Repository) Deactivate(ctx context.Context, q database.Queryer, id int64, now time.Time) error {
	res, err := q.ExecContext(ctx, `
		UPDATE users SET is_active = 0, modified_at = ? WHERE id = ? AND is_active = 1
	`, now.UnixNano(), id)
	if err != nil {
		return database.TranslateError(err)
	}
	return requireAffected(res, id)
}

func requireAffected(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	return nil
}

func scanUser(row *sql.Row, id int64) (*User, error) {
	u, err := scanUserRow(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func scanUserRow(row *sql.Row) (*User, error) {
	var (
		u          User
		isActive   int64
		createdAt  int64
		modifiedAt int64
	)
	err := row.Scan(&u.ID, &u.Login, &u.passwordHash, &u.Role, &isActive, &createdAt, &modifiedAt)
	if err != nil {
		return nil, err
	}
	u.IsActive = isActive != 0
	u.CreatedAt = time.Unix(0, createdAt).UTC()
	u.ModifiedAt = time.Unix(0, modifiedAt).UTC()
	return &u, nil
}
