package sqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestStore_Contract(t *testing.T) {
	store, err := NewStore(newTestDB(t))
	require.NoError(t, err)
	ports.RunSessionStoreContract(t, store)
}

func TestStore_SchemaIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	first, err := NewStore(db)
	require.NoError(t, err)
	require.NoError(t, first.Set(context.Background(), 1, "trace", []byte(`["0"]`)))

	second, err := NewStore(db)
	require.NoError(t, err)
	got, err := second.Get(context.Background(), 1, "trace")
	require.NoError(t, err)
	assert.Equal(t, `["0"]`, string(got))
}

func TestStore_EmptyValue(t *testing.T) {
	store, err := NewStore(newTestDB(t))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, 3, "draft", nil))
	got, err := store.Get(ctx, 3, "draft")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProfiles(t *testing.T) {
	repo, err := NewProfiles(newTestDB(t))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = repo.Get(ctx, 5)
	assert.ErrorIs(t, err, ports.ErrProfileNotFound)

	prof := ports.Profile{UserID: 5, Name: "Ada", Age: 36, Role: "teacher", Subject: "math"}
	require.NoError(t, repo.Save(ctx, prof))
	got, err := repo.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, prof, got)

	prof.Role = "student"
	prof.Subject = ""
	require.NoError(t, repo.Save(ctx, prof))
	got, err = repo.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "student", got.Role)
	assert.Empty(t, got.Subject)
}

func TestCatalog(t *testing.T) {
	cat, err := NewCatalog(newTestDB(t))
	require.NoError(t, err)
	ctx := context.Background()

	empty, err := cat.Categories(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	seed := []ports.Category{
		{ID: 2, Title: "Books", Children: []ports.Entry{
			{ID: 21, Title: "Dune", Description: "Sand", ImageURL: "https://example.org/dune.png"},
			{ID: 20, Title: "Emma"},
		}},
		{ID: 1, Title: "Films"},
	}
	wrote, err := cat.Seed(ctx, seed)
	require.NoError(t, err)
	assert.True(t, wrote)

	got, err := cat.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Books", got[0].Title, "seed order is display order")
	require.Len(t, got[0].Children, 2)
	assert.Equal(t, 21, got[0].Children[0].ID)
	assert.Equal(t, "https://example.org/dune.png", got[0].Children[0].ImageURL)
	assert.Empty(t, got[1].Children)

	wrote, err = cat.Seed(ctx, []ports.Category{{ID: 9, Title: "Games"}})
	require.NoError(t, err)
	assert.False(t, wrote, "seeding a populated catalog is a no-op")

	require.NoError(t, cat.Put(ctx, ports.Category{ID: 1, Title: "Movies", Children: []ports.Entry{{ID: 30, Title: "Alien"}}}, 1))
	got, err = cat.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Movies", got[1].Title)
	require.Len(t, got[1].Children, 1)
	assert.Equal(t, "Alien", got[1].Children[0].Title)
}
