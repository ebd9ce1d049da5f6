// Package sqlite provides durable adapters backed by SQLite (modernc.org/sqlite, no cgo):
// a session store, a catalog source and a profile repository sharing one *sql.DB.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) a database at path. Use ":memory:" for a throwaway database.
// The pool is pinned to a single connection so every adapter sees the same
// in-memory database and writes are serialized.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure sqlite %s: %w", path, err)
	}
	return db, nil
}
