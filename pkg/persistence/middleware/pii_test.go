package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{"password", "ssn"})
	require.NoError(t, err)
	view := mw(underlying)

	original := `{"username":"jdoe","user_password":"secret123","details":{"address":"123 St","ssn_number":"999"},"list":[{"ssn":"1"}]}`
	require.NoError(t, underlying.Set(ctx, 1, "draft:1", []byte(original)))

	v, err := view.Get(ctx, 1, "draft:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"jdoe","user_password":"***","details":{"address":"123 St","ssn_number":"***"},"list":[{"ssn":"***"}]}`, string(v))

	stored, err := underlying.Get(ctx, 1, "draft:1")
	require.NoError(t, err)
	assert.Equal(t, original, string(stored), "the store itself is never modified")
}

func TestPIIMiddleware_PassThrough(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	require.NoError(t, err)
	view := mw(underlying)

	require.NoError(t, underlying.Set(ctx, 1, "position", []byte(`{"dialog_id":1,"sequence_id":0,"item_index":2}`)))
	require.NoError(t, underlying.Set(ctx, 1, "raw", []byte("not json")))

	v, err := view.Get(ctx, 1, "position")
	require.NoError(t, err)
	assert.JSONEq(t, `{"dialog_id":1,"sequence_id":0,"item_index":2}`, string(v))

	v, err = view.Get(ctx, 1, "raw")
	require.NoError(t, err)
	assert.Equal(t, "not json", string(v))
}

func TestPIIMiddleware_ReadOnly(t *testing.T) {
	ctx := context.Background()
	mw, err := middleware.NewPIIMiddleware(nil)
	require.NoError(t, err)
	view := mw(memory.NewStore())

	assert.ErrorIs(t, view.Set(ctx, 1, "k", []byte("v")), middleware.ErrReadOnly)
	assert.ErrorIs(t, view.Delete(ctx, 1, "k"), middleware.ErrReadOnly)
	assert.ErrorIs(t, view.Clear(ctx, 1), middleware.ErrReadOnly)
}

func TestPIIMiddleware_BadPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}
