package users

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akeil/stashd/internal/domain"
	testingpkg "github.com/akeil/stashd/internal/testing"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, cleanup := testingpkg.NewTestDB(t)
	t.Cleanup(cleanup)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewService(db, NewRepository(log), log)
}

func TestCreateUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, "  zoe  ", "hunter2secret", "")
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "zoe", user.Login, "login is stored trimmed")
	assert.Equal(t, domain.RoleUser, user.Role, "role defaults to USER")
	assert.True(t, user.IsActive)
	assert.Len(t, user.passwordHash, 60)
	assert.True(t, strings.HasPrefix(user.passwordHash, "$2a$"), "password is stored as a bcrypt hash")
	assert.NotContains(t, user.passwordHash, "hunter2secret")

	admin, err := svc.Create(ctx, "root", "changeme1234", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.True(t, admin.IsAdmin())
}

func TestCreateUser_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		login    string
		password string
		role     domain.UserRole
	}{
		{"empty login", "", "secret", ""},
		{"whitespace login", "   ", "secret", ""},
		{"empty password", "zoe", "", ""},
		{"unknown role", "zoe", "secret", domain.UserRole("ROOT")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.login, tt.password, tt.role)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestCreateUser_DuplicateLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "zoe", "hunter2secret", "")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "zoe", "other-password", "")
	assert.ErrorIs(t, err, domain.ErrNameConflict)
}

func TestVerifyPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "zoe", "hunter2secret", "")
	require.NoError(t, err)

	t.Run("correct credentials", func(t *testing.T) {
		user, err := svc.VerifyPassword(ctx, "zoe", "hunter2secret")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.VerifyPassword(ctx, "zoe", "wrong")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("unknown login", func(t *testing.T) {
		_, err := svc.VerifyPassword(ctx, "nobody", "hunter2secret")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUpdateLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, "zoe", "hunter2secret", "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "sam", "another-secret", "")
	require.NoError(t, err)

	updated, err := svc.UpdateLogin(ctx, user.ID, "zoe-renamed")
	require.NoError(t, err)
	assert.Equal(t, "zoe-renamed", updated.Login)

	_, err = svc.VerifyPassword(ctx, "zoe-renamed", "hunter2secret")
	assert.NoError(t, err, "the password survives a rename")

	_, err = svc.UpdateLogin(ctx, user.ID, "sam")
	assert.ErrorIs(t, err, domain.ErrNameConflict)

	_, err = svc.UpdateLogin(ctx, user.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UpdateLogin(ctx, 9999, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdatePassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, "zoe", "old-password", "")
	require.NoError(t, err)

	require.NoError(t, svc.UpdatePassword(ctx, user.ID, "new-password"))

	_, err = svc.VerifyPassword(ctx, "zoe", "old-password")
	assert.ErrorIs(t, err, domain.ErrNotFound, "the old password stops working")

	_, err = svc.VerifyPassword(ctx, "zoe", "new-password")
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.UpdatePassword(ctx, user.ID, ""), domain.ErrValidation)
}

func TestDeleteUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, "zoe", "hunter2secret", "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, user.ID))

	_, err = svc.Get(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.VerifyPassword(ctx, "zoe", "hunter2secret")
	assert.ErrorIs(t, err, domain.ErrNotFound, "deactivated users cannot log in")

	// The login is free again once its holder is gone.
	_, err = svc.Create(ctx, "zoe", "hunter2secret", "")
	assert.NoError(t, err)
}

func TestDeleteUser_AdminProtected(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	admin, err := svc.Create(ctx, "root", "changeme1234", domain.RoleAdmin)
	require.NoError(t, err)

	err = svc.Delete(ctx, admin.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Get(ctx, admin.ID)
	assert.NoError(t, err, "the admin survives")
}
