// Package catalog generates browsing dialogs from live two-level catalog data.
//
// The generated dialog has a root sequence listing every category. Each category's
// entries are split into pages; a page is a sequence with a single item listing
// its entries and a "next page" option. Every entry has a leaf sequence showing
// it, with a "choose" option that completes the dialog and a raw option that
// returns to the top-level menu.
package catalog

import (
	"context"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/route"
)

// DefaultPageSize is the number of entries per page.
const DefaultPageSize = 5

// Text keys used by generated items and options.
const (
	KeyTitle  = "catalog.title"
	KeyNext   = "catalog.next"
	KeyChoose = "catalog.choose"
	KeyMenu   = "catalog.menu"
	KeyEmpty  = "catalog.empty"
)

// Arg keys carried by leaf items.
const (
	ArgEntryID = "entry_id"
	ArgTitle   = "title"
	ArgPage    = "page"
	ArgPages   = "pages"
)

type config struct {
	pageSize  int
	menuToken string
}

// Option configures generation.
type Option func(*config)

// WithPageSize sets how many entries a page lists. Values below 1 are ignored.
func WithPageSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithMenuToken sets the raw token of the "return to menu" option.
func WithMenuToken(token string) Option {
	return func(c *config) {
		c.menuToken = token
	}
}

// Load fetches the catalog from source and builds a fresh dialog from it.
func Load(ctx context.Context, source ports.CatalogSource, dialogID int, opts ...Option) (*domain.Dialog, error) {
	cats, err := source.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return Build(dialogID, cats, opts...)
}

// Build generates the browsing dialog for categories.
func Build(dialogID int, categories []ports.Category, opts ...Option) (*domain.Dialog, error) {
	cfg := config{pageSize: DefaultPageSize, menuToken: route.Screen(0)}
	for _, opt := range opts {
		opt(&cfg)
	}

	g := dsl.NewGenerator(dialogID)
	root := g.CreateSequence()
	rootItem := g.CreateItem(KeyTitle, domain.ItemSelect)
	if err := g.AddItemToSequence(root, rootItem); err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		if err := addMenu(g, rootItem, 0, cfg.menuToken); err != nil {
			return nil, err
		}
	}

	for row, cat := range categories {
		first, err := buildCategory(g, cat, cfg)
		if err != nil {
			return nil, fmt.Errorf("category %d: %w", cat.ID, err)
		}
		opt := g.CreateOption(cat.Title, row)
		if err := g.AddOptionToItem(rootItem, opt); err != nil {
			return nil, err
		}
		if err := g.LinkOptionToSequence(opt, first); err != nil {
			return nil, err
		}
	}

	return g.Build()
}

// buildCategory creates the pages of one category and returns the first page's sequence.
func buildCategory(g *dsl.Generator, cat ports.Category, cfg config) (int, error) {
	pages := paginate(cat.Children, cfg.pageSize)

	seqs := make([]int, len(pages))
	items := make([]int, len(pages))
	for i := range pages {
		seqs[i] = g.CreateSequence()
		items[i] = g.CreateItem(cat.Title, domain.ItemSelect)
		if err := g.SetArgs(items[i], map[string]any{ArgPage: i + 1, ArgPages: len(pages)}); err != nil {
			return 0, err
		}
		if err := g.AddItemToSequence(seqs[i], items[i]); err != nil {
			return 0, err
		}
	}

	for i, page := range pages {
		for row, entry := range page {
			leaf, err := buildLeaf(g, entry, cfg)
			if err != nil {
				return 0, err
			}
			opt := g.CreateOption(entry.Title, row)
			if err := g.AddOptionToItem(items[i], opt); err != nil {
				return 0, err
			}
			if err := g.LinkOptionToSequence(opt, leaf); err != nil {
				return 0, err
			}
		}

		switch {
		case i+1 < len(pages):
			next := g.CreateOption(KeyNext, len(page))
			if err := g.AddOptionToItem(items[i], next); err != nil {
				return 0, err
			}
			if err := g.LinkOptionToSequence(next, seqs[i+1]); err != nil {
				return 0, err
			}
		case len(page) == 0:
			if err := addMenu(g, items[i], 0, cfg.menuToken); err != nil {
				return 0, err
			}
		}
	}

	return seqs[0], nil
}

func buildLeaf(g *dsl.Generator, entry ports.Entry, cfg config) (int, error) {
	seq := g.CreateSequence()
	text := entry.Description
	if text == "" {
		text = entry.Title
	}
	item := g.CreateItem(text, domain.ItemSelect)
	if err := g.SetArgs(item, map[string]any{ArgEntryID: entry.ID, ArgTitle: entry.Title}); err != nil {
		return 0, err
	}
	if entry.ImageURL != "" {
		if err := g.SetImages(item, entry.ImageURL); err != nil {
			return 0, err
		}
	}
	if err := g.AddItemToSequence(seq, item); err != nil {
		return 0, err
	}

	choose := g.CreateOption(KeyChoose, 0)
	if err := g.AddOptionToItem(item, choose); err != nil {
		return 0, err
	}
	return seq, addMenu(g, item, 1, cfg.menuToken)
}

func addMenu(g *dsl.Generator, item, row int, token string) error {
	opt := g.CreateOption(KeyMenu, row)
	if err := g.SetCallbackData(opt, token); err != nil {
		return err
	}
	return g.AddOptionToItem(item, opt)
}

// paginate splits entries into pages of size n. An empty list is one empty page.
func paginate(entries []ports.Entry, n int) [][]ports.Entry {
	if len(entries) == 0 {
		return [][]ports.Entry{nil}
	}
	var pages [][]ports.Entry
	for start := 0; start < len(entries); start += n {
		end := min(start+n, len(entries))
		pages = append(pages, entries[start:end])
	}
	return pages
}

// EntryID reads the catalog entry id carried by a leaf item.
// Args survive a JSON round trip through the session store, so numbers may come back as float64.
func EntryID(item domain.Item) (int, bool) {
	switch v := item.Args[ArgEntryID].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
