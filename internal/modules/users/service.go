package users

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/akeil/stashd/internal/database"
	"github.com/akeil/stashd/internal/domain"
)

// Service implements user management. Passwords are hashed with bcrypt
// at the default cost; verification never reveals whether the login or
// the password was wrong.
type Service struct {
	store *database.DB
	users *Repository
	log   zerolog.Logger
}

// NewService creates a new users service.
func NewService(store *database.DB, users *Repository, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		users: users,
		log:   log.With().Str("service", "users").Logger(),
	}
}

// Create adds a new user with a bcrypt-hashed password.
func (s *Service) Create(ctx context.Context, login, password string, role domain.UserRole) (*User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, fmt.Errorf("%w: user_login must not be empty", domain.ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password must not be empty", domain.ErrValidation)
	}
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, s.store, login, string(hash), role)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("id", user.ID).Str("login", user.Login).Msg("User created")
	return user, nil
}

// Get retrieves one active user.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.users.GetByID(ctx, s.store, id)
}

// VerifyPassword checks a login/password pair and returns the matching
// user. An unknown login and a wrong password both come back as
// NotFound.
func (s *Service) VerifyPassword(ctx context.Context, login, password string) (*User, error) {
	user, err := s.users.GetByLogin(ctx, s.store, strings.TrimSpace(login))
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.passwordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: user %q", domain.ErrNotFound, login)
	}
	return user, nil
}

// UpdateLogin renames a user.
func (s *Service) UpdateLogin(ctx context.Context, id int64, login string) (*User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, fmt.Errorf("%w: user_login must not be empty", domain.ErrValidation)
	}

	var updated *User
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.users.UpdateLogin(ctx, tx, id, login, time.Now().UTC()); err != nil {
			return err
		}
		var err error
		updated, err = s.users.GetByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdatePassword replaces a user's password.
func (s *Service) UpdatePassword(ctx context.Context, id int64, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password must not be empty", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.users.UpdatePasswordHash(ctx, s.store, id, string(hash), time.Now().UTC())
}

// Delete soft-deletes a user. ADMIN users refuse deletion.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		user, err := s.users.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if user.IsAdmin() {
			return fmt.Errorf("%w: admin user %d cannot be deleted", domain.ErrValidation, id)
		}
		return s.users.Deactivate(ctx, tx, id, time.Now().UTC())
	})
	if err != nil {
		return err
	}

	s.log.Info().Int64("id", id).Msg("User deleted")
	return nil
}
