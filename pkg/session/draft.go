package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

type draftStore struct {
	session *Session
	key     string
}

func (d *draftStore) LoadDraft(ctx context.Context) ([]byte, error) {
	return d.session.store.Get(ctx, d.session.userID, d.key)
}

func (d *draftStore) SaveDraft(ctx context.Context, data []byte) error {
	return d.session.store.Set(ctx, d.session.userID, d.key, data)
}

func (d *draftStore) ClearDraft(ctx context.Context) error {
	return d.session.store.Delete(ctx, d.session.userID, d.key)
}

// LoadDraft decodes the draft of a dialog into T.
// A missing draft yields the zero value of T.
func LoadDraft[T any](ctx context.Context, ds ports.DraftStore) (T, error) {
	var v T
	raw, err := ds.LoadDraft(ctx)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return v, nil
	}
	if err != nil {
		return v, fmt.Errorf("failed to load draft: %w", err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("failed to decode draft: %w", err)
	}
	return v, nil
}

// SaveDraft encodes v as the dialog's draft.
func SaveDraft[T any](ctx context.Context, ds ports.DraftStore, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	return ds.SaveDraft(ctx, raw)
}
