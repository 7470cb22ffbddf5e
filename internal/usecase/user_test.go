package usecase_test

import (
	"testing"
	"time"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/auth"
	"github.com/AlenaMolokova/bazario/internal/testutils"
	"github.com/AlenaMolokova/bazario/internal/usecase"
	"github.com/AlenaMolokova/bazario/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserUseCase() (*usecase.UserUseCase, *testutils.MemoryStore, *auth.TokenManager) {
	store := testutils.NewMemoryStore()
	tokens := auth.NewTokenManager("testsecret", time.Hour)
	return usecase.NewUserUseCase(store, tokens, validation.NewDefaultPasswordValidator()), store, tokens
}

func TestUserRegister(t *testing.T) {
	uc, _, tokens := newUserUseCase()

	user, token, err := uc.Register(ctx, usecase.RegisterInput{
		Username: "  alice ",
		Password: "secret1",
		Email:    "alice@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.False(t, user.IsAdmin)
	assert.Equal(t, int64(0), user.Coins)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	userID, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestUserRegisterErrors(t *testing.T) {
	uc, _, _ := newUserUseCase()
	_, _, err := uc.Register(ctx, usecase.RegisterInput{Username: "alice", Password: "secret1"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   usecase.RegisterInput
		wantErr error
	}{
		{name: "duplicate username", input: usecase.RegisterInput{Username: "alice", Password: "secret2"}, wantErr: apperrors.ErrAlreadyExists},
		{name: "short password", input: usecase.RegisterInput{Username: "bob", Password: "123"}, wantErr: apperrors.ErrValidation},
		{name: "empty username", input: usecase.RegisterInput{Username: " ", Password: "secret1"}, wantErr: apperrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := uc.Register(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUserAuthenticate(t *testing.T) {
	uc, _, tokens := newUserUseCase()
	user, _, err := uc.Register(ctx, usecase.RegisterInput{Username: "alice", Password: "secret1"})
	require.NoError(t, err)

	authed, token, err := uc.Authenticate(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
	userID, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	_, _, err = uc.Authenticate(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, _, err = uc.Authenticate(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestUserPrincipalAndList(t *testing.T) {
	uc, store, _ := newUserUseCase()
	admin := store.SeedUser(modelsUser("admin", true))
	alice := store.SeedUser(modelsUser("alice", false))

	p, err := uc.Principal(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, as(alice), p)

	_, err = uc.Principal(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = uc.List(ctx, as(alice))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	users, err := uc.List(ctx, as(admin))
	require.NoError(t, err)
	assert.Len(t, users, 2)

	me, err := uc.Me(ctx, as(alice))
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
}

func TestUserEnsureAdmin(t *testing.T) {
	t.Run("creates missing admin", func(t *testing.T) {
		uc, store, _ := newUserUseCase()

		admin, err := uc.EnsureAdmin(ctx, "admin", "adminpass")
		require.NoError(t, err)
		assert.True(t, admin.IsAdmin)

		ids, err := store.ListAdminIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{admin.ID}, ids)

		_, _, err = uc.Authenticate(ctx, "admin", "adminpass")
		assert.NoError(t, err)

		again, err := uc.EnsureAdmin(ctx, "admin", "adminpass")
		require.NoError(t, err)
		assert.Equal(t, admin.ID, again.ID)
	})

	t.Run("promotes existing user", func(t *testing.T) {
		uc, store, _ := newUserUseCase()
		alice := store.SeedUser(modelsUser("alice", false))

		promoted, err := uc.EnsureAdmin(ctx, "alice", "")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, promoted.ID)
		assert.True(t, promoted.IsAdmin)

		stored, err := store.GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsAdmin)
	})

	t.Run("missing admin without password", func(t *testing.T) {
		uc, _, _ := newUserUseCase()
		_, err := uc.EnsureAdmin(ctx, "admin", "")
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestUserResolveOperator(t *testing.T) {
	uc, store, _ := newUserUseCase()
	operator := store.SeedUser(modelsUser("cashier", false))

	id, err := uc.ResolveOperator(ctx, "cashier")
	require.NoError(t, err)
	assert.Equal(t, operator.ID, id)

	_, err = uc.ResolveOperator(ctx, "nobody")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
