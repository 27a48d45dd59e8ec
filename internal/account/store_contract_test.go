package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every Store backend must share.
// newStore must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("create assigns identity", func(t *testing.T) {
		store := newStore(t)
		acc := &Account{Email: "alice@example.com", Name: "Alice", PasswordHash: "hash"}

		require.NoError(t, store.Create(ctx, acc))
		assert.NotEmpty(t, acc.ID)
		assert.Equal(t, int64(1), acc.Version)

		got, err := store.FindByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, acc.ID, got.ID)
		assert.Equal(t, "Alice", got.Name)
		assert.Equal(t, "hash", got.PasswordHash)
		assert.Equal(t, 0, got.LoginAttempts)
		assert.Nil(t, got.LockUntil)
		assert.Equal(t, int64(1), got.Version)
	})

	t.Run("duplicate email", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, &Account{Email: "bob@example.com", PasswordHash: "a"}))

		err := store.Create(ctx, &Account{Email: "bob@example.com", PasswordHash: "b"})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("unknown email", func(t *testing.T) {
		store := newStore(t)
		_, err := store.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save persists counters and bumps version", func(t *testing.T) {
		store := newStore(t)
		acc := &Account{Email: "carol@example.com", PasswordHash: "hash"}
		require.NoError(t, store.Create(ctx, acc))

		lockUntil := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
		acc.LoginAttempts = 0
		acc.LockUntil = &lockUntil
		require.NoError(t, store.Save(ctx, acc))
		assert.Equal(t, int64(2), acc.Version)

		got, err := store.FindByEmail(ctx, "carol@example.com")
		require.NoError(t, err)
		require.NotNil(t, got.LockUntil)
		assert.True(t, lockUntil.Equal(*got.LockUntil))
		assert.Equal(t, int64(2), got.Version)

		got.LoginAttempts = 3
		got.LockUntil = nil
		require.NoError(t, store.Save(ctx, got))

		again, err := store.FindByEmail(ctx, "carol@example.com")
		require.NoError(t, err)
		assert.Equal(t, 3, again.LoginAttempts)
		assert.Nil(t, again.LockUntil)
	})

	t.Run("stale save conflicts", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, &Account{Email: "dave@example.com", PasswordHash: "hash"}))

		first, err := store.FindByEmail(ctx, "dave@example.com")
		require.NoError(t, err)
		second, err := store.FindByEmail(ctx, "dave@example.com")
		require.NoError(t, err)

		first.LoginAttempts = 1
		require.NoError(t, store.Save(ctx, first))

		second.LoginAttempts = 1
		err = store.Save(ctx, second)
		assert.ErrorIs(t, err, ErrVersionConflict)
		assert.Equal(t, int64(1), second.Version)

		got, err := store.FindByEmail(ctx, "dave@example.com")
		require.NoError(t, err)
		assert.Equal(t, 1, got.LoginAttempts)
	})
}
