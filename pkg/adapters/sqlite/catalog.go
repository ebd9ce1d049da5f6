package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aretw0/arbor/pkg/ports"
)

// Catalog implements ports.CatalogSource over two tables: categories and their entries.
// Categories and entries come back ordered by position, then id.
type Catalog struct {
	db *sql.DB
}

var _ ports.CatalogSource = (*Catalog)(nil)

// NewCatalog initializes the catalog schema in db.
func NewCatalog(db *sql.DB) (*Catalog, error) {
	c := &Catalog{db: db}
	if err := c.initSchema(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) initSchema() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS catalog_categories (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS catalog_entries (
			id INTEGER PRIMARY KEY,
			category_id INTEGER NOT NULL REFERENCES catalog_categories(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL DEFAULT 0
		);`,
	)
	return err
}

// Categories loads the whole two-level catalog.
func (c *Catalog) Categories(ctx context.Context) ([]ports.Category, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, title FROM catalog_categories ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	var cats []ports.Category
	index := make(map[int]int)
	for rows.Next() {
		var cat ports.Category
		if err := rows.Scan(&cat.ID, &cat.Title); err != nil {
			rows.Close()
			return nil, err
		}
		index[cat.ID] = len(cats)
		cats = append(cats, cat)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = c.db.QueryContext(ctx, `
		SELECT id, category_id, title, description, image_url
		FROM catalog_entries ORDER BY category_id, position, id`)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			e   ports.Entry
			cat int
		)
		if err := rows.Scan(&e.ID, &cat, &e.Title, &e.Description, &e.ImageURL); err != nil {
			return nil, err
		}
		if i, ok := index[cat]; ok {
			cats[i].Children = append(cats[i].Children, e)
		}
	}
	return cats, rows.Err()
}

// Put inserts or replaces a category with all its entries, in one transaction.
// Slice order becomes display order.
func (c *Catalog) Put(ctx context.Context, cat ports.Category, position int) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO catalog_categories (id, title, position) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET title = excluded.title, position = excluded.position`,
		cat.ID, cat.Title, position,
	); err != nil {
		return fmt.Errorf("put category %d: %w", cat.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_entries WHERE category_id = ?`, cat.ID); err != nil {
		return err
	}
	for i, e := range cat.Children {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO catalog_entries (id, category_id, title, description, image_url, position)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				category_id = excluded.category_id, title = excluded.title,
				description = excluded.description, image_url = excluded.image_url,
				position = excluded.position`,
			e.ID, cat.ID, e.Title, e.Description, e.ImageURL, i,
		); err != nil {
			return fmt.Errorf("put entry %d: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// Seed stores cats in order when the catalog is empty. It reports whether anything was written.
func (c *Catalog) Seed(ctx context.Context, cats []ports.Category) (bool, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalog_categories`).Scan(&n); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	for i, cat := range cats {
		if err := c.Put(ctx, cat, i); err != nil {
			return false, err
		}
	}
	return true, nil
}
