package ports

import "context"

// SessionStore persists per-user conversational state as opaque values under keys.
// Implementations must isolate users strictly: a key of one user is never visible to another.
type SessionStore interface {
	// Get returns the value stored under key.
	// Returns domain.ErrKeyNotFound if the key does not exist.
	Get(ctx context.Context, userID int64, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, userID int64, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, userID int64, key string) error

	// Clear removes every key of the user.
	Clear(ctx context.Context, userID int64) error

	// List returns the users that currently hold at least one key.
	List(ctx context.Context) ([]int64, error)
}
