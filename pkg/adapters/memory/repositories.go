package memory

import (
	"context"
	"sync"

	"github.com/aretw0/arbor/pkg/ports"
)

// Profiles implements ports.ProfileRepository in memory.
type Profiles struct {
	mu   sync.RWMutex
	data map[int64]ports.Profile
}

// NewProfiles creates an empty profile repository.
func NewProfiles() *Profiles {
	return &Profiles{data: make(map[int64]ports.Profile)}
}

func (p *Profiles) Get(ctx context.Context, userID int64) (ports.Profile, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	prof, ok := p.data[userID]
	if !ok {
		return ports.Profile{}, ports.ErrProfileNotFound
	}
	return prof, nil
}

func (p *Profiles) Save(ctx context.Context, prof ports.Profile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[prof.UserID] = prof
	return nil
}

// Catalog is a fixed, in-memory ports.CatalogSource.
type Catalog []ports.Category

func (c Catalog) Categories(ctx context.Context) ([]ports.Category, error) {
	return c, nil
}
