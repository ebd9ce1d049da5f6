package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	base := time.Now().UnixNano() % 1_000_000_000

	t.Run("Set and Get", func(t *testing.T) {
		user := base + 1
		require.NoError(t, store.Set(ctx, user, "position", []byte(`{"dialog_id":1}`)))

		got, err := store.Get(ctx, user, "position")
		require.NoError(t, err)
		assert.JSONEq(t, `{"dialog_id":1}`, string(got))

		require.NoError(t, store.Set(ctx, user, "position", []byte(`{"dialog_id":2}`)))
		got, err = store.Get(ctx, user, "position")
		require.NoError(t, err)
		assert.JSONEq(t, `{"dialog_id":2}`, string(got), "Set overwrites")
	})

	t.Run("Get Missing", func(t *testing.T) {
		_, err := store.Get(ctx, base+2, "nothing")
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	})

	t.Run("User Isolation", func(t *testing.T) {
		alice, bob := base+3, base+4
		require.NoError(t, store.Set(ctx, alice, "trace", []byte(`["0"]`)))

		_, err := store.Get(ctx, bob, "trace")
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)

		require.NoError(t, store.Clear(ctx, bob))
		_, err = store.Get(ctx, alice, "trace")
		assert.NoError(t, err, "clearing one user leaves others intact")
	})

	t.Run("Delete", func(t *testing.T) {
		user := base + 5
		require.NoError(t, store.Set(ctx, user, "dialog", []byte(`{}`)))
		require.NoError(t, store.Delete(ctx, user, "dialog"))

		_, err := store.Get(ctx, user, "dialog")
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)

		assert.NoError(t, store.Delete(ctx, user, "dialog"), "deleting twice is fine")
	})

	t.Run("Clear", func(t *testing.T) {
		user := base + 6
		require.NoError(t, store.Set(ctx, user, "a", []byte("1")))
		require.NoError(t, store.Set(ctx, user, "b", []byte("2")))
		require.NoError(t, store.Clear(ctx, user))

		_, err := store.Get(ctx, user, "a")
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
		_, err = store.Get(ctx, user, "b")
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	})

	t.Run("List", func(t *testing.T) {
		u1, u2 := base+7, base+8
		require.NoError(t, store.Set(ctx, u1, "trace", []byte(`[]`)))
		require.NoError(t, store.Set(ctx, u2, "trace", []byte(`[]`)))
		defer func() {
			_ = store.Clear(ctx, u1)
			_ = store.Clear(ctx, u2)
		}()

		users, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, users, u1)
		assert.Contains(t, users, u2)
	})
}
