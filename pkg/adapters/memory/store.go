package memory

import (
	"context"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[int64]map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[int64]map[string][]byte),
	}
}

// Get returns a copy of the stored value so callers can't mutate the store by reference.
func (s *Store) Get(ctx context.Context, userID int64, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[userID][key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value.
func (s *Store) Set(ctx context.Context, userID int64, key string, value []byte) error {
	copied := append([]byte(nil), value...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[userID] == nil {
		s.data[userID] = make(map[string][]byte)
	}
	s.data[userID][key] = copied
	return nil
}

// Delete removes a key.
func (s *Store) Delete(ctx context.Context, userID int64, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, ok := s.data[userID]
	if !ok {
		return nil
	}
	delete(keys, key)
	if len(keys) == 0 {
		delete(s.data, userID)
	}
	return nil
}

// Clear removes every key of the user.
func (s *Store) Clear(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, userID)
	return nil
}

// List returns users with stored state.
func (s *Store) List(ctx context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]int64, 0, len(s.data))
	for id := range s.data {
		users = append(users, id)
	}
	return users, nil
}
