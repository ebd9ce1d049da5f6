package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the adapter.
const DefaultPrefix = "arbor:session:"

// farFuture is the index score of sessions that never expire.
const farFuture = 4102444800 // 2100-01-01

// Store implements ports.SessionStore using one Redis hash per user.
// A sorted set indexes users by expiry so List can prune lazily.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration of a user's session, refreshed on every write.
// Abandoned dialogs expire this way.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(userID int64) string {
	return s.prefix + strconv.FormatInt(userID, 10)
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Get reads one field of the user's hash.
func (s *Store) Get(ctx context.Context, userID int64, key string) ([]byte, error) {
	val, err := s.client.HGet(ctx, s.key(userID), key).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, domain.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return val, nil
}

// Set writes one field and refreshes the session's expiry.
func (s *Store) Set(ctx context.Context, userID int64, key string, value []byte) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(userID), key, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(userID), s.ttl)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: userID})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Delete removes one field. The user leaves the index once the hash is empty.
func (s *Store) Delete(ctx context.Context, userID int64, key string) error {
	if err := s.client.HDel(ctx, s.key(userID), key).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	n, err := s.client.Exists(ctx, s.key(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if n == 0 {
		return s.client.ZRem(ctx, s.indexKey(), userID).Err()
	}
	return nil
}

// Clear removes the user's whole session.
func (s *Store) Clear(ctx context.Context, userID int64) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(userID))
	pipe.ZRem(ctx, s.indexKey(), userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// List returns users with a live session, pruning expired index entries first.
func (s *Store) List(ctx context.Context) ([]int64, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	members, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	users := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		users = append(users, id)
	}
	return users, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
