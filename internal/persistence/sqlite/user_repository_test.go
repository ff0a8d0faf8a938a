package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/homestay/internal/persistence"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	phone := "+33612345678"
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	user := persistence.User{
		ID:           "u-1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		PhoneNumber:  &phone,
		Country:      "France",
		Town:         "Paris",
		IsAdmin:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, storage.Users.CreateUser(ctx, user))

	t.Run("by id", func(t *testing.T) {
		got, err := storage.Users.GetUser(ctx, "u-1")
		require.NoError(t, err)
		require.Equal(t, "alice", got.Username)
		require.True(t, got.IsAdmin)
		require.NotNil(t, got.PhoneNumber)
		require.Equal(t, phone, *got.PhoneNumber)
	})

	t.Run("by email", func(t *testing.T) {
		got, err := storage.Users.GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, "u-1", got.ID)
	})

	t.Run("by username", func(t *testing.T) {
		got, err := storage.Users.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, "u-1", got.ID)
	})

	t.Run("by phone", func(t *testing.T) {
		got, err := storage.Users.GetUserByPhone(ctx, phone)
		require.NoError(t, err)
		require.Equal(t, "u-1", got.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := storage.Users.GetUser(ctx, "u-missing")
		require.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		dup := user
		dup.ID = "u-2"
		dup.Username = "alice2"
		dup.PhoneNumber = nil
		err := storage.Users.CreateUser(ctx, dup)
		require.ErrorIs(t, err, persistence.ErrDuplicate)
	})
}

func TestUserRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	user := seedUser(t, storage, "u-1", "alice", "alice@example.com")

	user.Town = "Lyon"
	user.UpdatedAt = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, storage.Users.UpdateUser(ctx, user))

	got, err := storage.Users.GetUser(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, "Lyon", got.Town)

	require.NoError(t, storage.Users.DeleteUser(ctx, "u-1"))
	require.ErrorIs(t, storage.Users.DeleteUser(ctx, "u-1"), persistence.ErrNotFound)

	listed, err := storage.Users.ListUsers(ctx)
	require.NoError(t, err)
	require.Empty(t, listed)
}
