package usecase

import (
	"context"
	"io"
	"testing"
	"time"

	"herbal_store/internal/domain"
	"herbal_store/internal/repository"
	"herbal_store/internal/session"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUsers(t *testing.T) domain.UserUseCase {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	repo, err := repository.NewJSONUserRepository(t.TempDir(), logger)
	require.NoError(t, err)
	return NewUserUseCase(repo, session.NewMemoryStore[string](), time.Hour, logger)
}

func TestRegisterAndLogin(t *testing.T) {
	users := setupUsers(t)
	ctx := context.Background()

	user, err := users.RegisterUser(ctx, "Meera", " Meera@Example.com ", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "meera@example.com", user.Email)
	assert.NotEqual(t, "Secret123", user.PasswordHash)

	_, err = users.RegisterUser(ctx, "Meera", "meera@example.com", "Secret123")
	assert.ErrorIs(t, err, domain.ErrConflict)

	auth, err := users.AuthenticateUser(ctx, "meera@example.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, auth.UserID)
	assert.False(t, auth.IsAdmin)

	me, err := users.Authorize(ctx, auth.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)

	users.Logout(ctx, auth.Token)
	_, err = users.Authorize(ctx, auth.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLoginFailures(t *testing.T) {
	users := setupUsers(t)
	ctx := context.Background()
	_, err := users.RegisterUser(ctx, "Meera", "meera@example.com", "Secret123")
	require.NoError(t, err)

	_, err = users.AuthenticateUser(ctx, "meera@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = users.AuthenticateUser(ctx, "nobody@example.com", "Secret123")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = users.Authorize(ctx, "made-up-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRegisterValidation(t *testing.T) {
	users := setupUsers(t)
	ctx := context.Background()

	_, err := users.RegisterUser(ctx, "", "a@b.co", "Secret123")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = users.RegisterUser(ctx, "A", "not-an-email", "Secret123")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = users.RegisterUser(ctx, "A", "a@b.co", "short")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = users.RegisterUser(ctx, "A", "a@b.co", "alllowercase1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEnsureAdmin(t *testing.T) {
	users := setupUsers(t)
	ctx := context.Background()

	admin, err := users.EnsureAdmin(ctx, "admin@herbal.test", "Admin1234")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	again, err := users.EnsureAdmin(ctx, "admin@herbal.test", "Admin1234")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)

	auth, err := users.AuthenticateUser(ctx, "admin@herbal.test", "Admin1234")
	require.NoError(t, err)
	assert.True(t, auth.IsAdmin)
}
