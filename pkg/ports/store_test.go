package ports_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
)

// MockStore is a minimal map-backed SessionStore used to exercise the contract suite itself.
type MockStore struct {
	data map[int64]map[string][]byte
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[int64]map[string][]byte)}
}

func (m *MockStore) Get(ctx context.Context, userID int64, key string) ([]byte, error) {
	v, ok := m.data[userID][key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return v, nil
}

func (m *MockStore) Set(ctx context.Context, userID int64, key string, value []byte) error {
	if m.data[userID] == nil {
		m.data[userID] = make(map[string][]byte)
	}
	m.data[userID][key] = append([]byte(nil), value...)
	return nil
}

func (m *MockStore) Delete(ctx context.Context, userID int64, key string) error {
	delete(m.data[userID], key)
	if len(m.data[userID]) == 0 {
		delete(m.data, userID)
	}
	return nil
}

func (m *MockStore) Clear(ctx context.Context, userID int64) error {
	delete(m.data, userID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]int64, error) {
	users := make([]int64, 0, len(m.data))
	for id := range m.data {
		users = append(users, id)
	}
	return users, nil
}

func TestSessionStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, NewMockStore())
}

func TestIdentityResolver(t *testing.T) {
	assert.Equal(t, "menu.title", ports.Identity.Get("menu.title", nil))
}

func TestCallbackFunc(t *testing.T) {
	var seen ports.Step
	cb := ports.CallbackFunc(func(ctx context.Context, step ports.Step) (domain.Result, error) {
		seen = step
		return domain.SkipAndComplete(), nil
	})

	res, err := cb.Handle(context.Background(), ports.Step{UserID: 7, ItemID: 11})
	assert.NoError(t, err)
	assert.Equal(t, domain.ResultSkipAndComplete, res.Kind())
	assert.Equal(t, int64(7), seen.UserID)
}
