package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/arbor/internal/validator"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/catalog"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCatalog() memory.Catalog {
	var books []ports.Entry
	for i := 1; i <= 7; i++ {
		books = append(books, ports.Entry{
			ID:       i,
			Title:    fmt.Sprintf("Book %d", i),
			ImageURL: fmt.Sprintf("https://example.org/%d.png", i),
		})
	}
	return memory.Catalog{
		{ID: 1, Title: "Books", Children: books},
		{ID: 2, Title: "Music"},
	}
}

func optionTexts(d *domain.Dialog, item domain.Item) []string {
	var out []string
	for _, o := range d.OptionsOf(item) {
		out = append(out, o.Text)
	}
	return out
}

func TestBuild_Structure(t *testing.T) {
	d, err := catalog.Load(context.Background(), sampleCatalog(), 2)
	require.NoError(t, err)
	require.NoError(t, validator.ValidateDialog(d), "every generated sequence is reachable")

	rootItem, err := d.ItemAt(domain.RootSequenceID, 0)
	require.NoError(t, err)
	assert.Equal(t, catalog.KeyTitle, rootItem.Text)
	assert.Equal(t, []string{"Books", "Music"}, optionTexts(d, rootItem))

	books := d.OptionsOf(rootItem)[0]
	require.NotNil(t, books.TargetSequenceID)
	firstPage, err := d.ItemAt(*books.TargetSequenceID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Book 1", "Book 2", "Book 3", "Book 4", "Book 5", catalog.KeyNext}, optionTexts(d, firstPage))
	assert.Equal(t, 1, firstPage.Args[catalog.ArgPage])
	assert.Equal(t, 2, firstPage.Args[catalog.ArgPages])

	next := d.OptionsOf(firstPage)[5]
	require.NotNil(t, next.TargetSequenceID)
	secondPage, err := d.ItemAt(*next.TargetSequenceID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Book 6", "Book 7"}, optionTexts(d, secondPage), "last page has no next option")

	leafOpt := d.OptionsOf(secondPage)[1]
	leaf, err := d.ItemAt(*leafOpt.TargetSequenceID, 0)
	require.NoError(t, err)
	assert.Equal(t, "Book 7", leaf.Text)
	assert.Equal(t, []string{"https://example.org/7.png"}, leaf.Images)
	id, ok := catalog.EntryID(leaf)
	require.True(t, ok)
	assert.Equal(t, 7, id)

	opts := d.OptionsOf(leaf)
	require.Len(t, opts, 2)
	assert.Equal(t, catalog.KeyChoose, opts[0].Text)
	assert.Empty(t, opts[0].CallbackData)
	assert.Equal(t, catalog.KeyMenu, opts[1].Text)
	assert.Equal(t, "0", opts[1].CallbackData, "raw override back to the menu")
}

func TestBuild_EmptyCategory(t *testing.T) {
	d, err := catalog.Build(2, sampleCatalog(), catalog.WithMenuToken("3"))
	require.NoError(t, err)

	rootItem, err := d.ItemAt(domain.RootSequenceID, 0)
	require.NoError(t, err)
	music := d.OptionsOf(rootItem)[1]
	page, err := d.ItemAt(*music.TargetSequenceID, 0)
	require.NoError(t, err)

	opts := d.OptionsOf(page)
	require.Len(t, opts, 1)
	assert.Equal(t, "3", opts[0].CallbackData)
}

func TestBuild_PageSize(t *testing.T) {
	d, err := catalog.Build(2, sampleCatalog(), catalog.WithPageSize(3))
	require.NoError(t, err)

	// 1 root + 3 book pages + 7 leaves + 1 music page
	assert.Len(t, d.Sequences, 12)
}

func TestBuild_NoCategories(t *testing.T) {
	d, err := catalog.Build(2, nil)
	require.NoError(t, err)
	assert.Len(t, d.Sequences, 1)
}

type brokenSource struct{}

func (brokenSource) Categories(ctx context.Context) ([]ports.Category, error) {
	return nil, errors.New("unavailable")
}

func TestLoad_SourceError(t *testing.T) {
	_, err := catalog.Load(context.Background(), brokenSource{}, 2)
	assert.ErrorContains(t, err, "unavailable")
}
