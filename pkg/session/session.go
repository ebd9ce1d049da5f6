package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/route"
)

// Session keys.
const (
	KeyDialog   = "dialog"
	KeyPosition = "position"
	KeyTrace    = "trace"
	KeyAwaiting = "awaiting_text"
	KeyMessage  = "last_message"

	draftPrefix = "draft:"
)

// Session is typed access to the stored state of a single user.
type Session struct {
	store  ports.SessionStore
	userID int64
}

// UserID returns the owner of the session.
func (s *Session) UserID() int64 {
	return s.userID
}

// Dialog loads the active dialog. Returns domain.ErrDialogNotFound if none is stored.
func (s *Session) Dialog(ctx context.Context) (*domain.Dialog, error) {
	var d domain.Dialog
	found, err := s.get(ctx, KeyDialog, &d)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrDialogNotFound
	}
	return &d, nil
}

// SaveDialog stores the active dialog.
func (s *Session) SaveDialog(ctx context.Context, d *domain.Dialog) error {
	return s.set(ctx, KeyDialog, d)
}

// Position loads the position inside the active dialog.
func (s *Session) Position(ctx context.Context) (domain.Position, bool, error) {
	var p domain.Position
	found, err := s.get(ctx, KeyPosition, &p)
	return p, found, err
}

// SavePosition stores the position.
func (s *Session) SavePosition(ctx context.Context, p domain.Position) error {
	return s.set(ctx, KeyPosition, p)
}

// Trace loads the navigation stack. A missing trace is an empty stack.
func (s *Session) Trace(ctx context.Context) (*route.Stack, error) {
	st := route.NewStack()
	if _, err := s.get(ctx, KeyTrace, st); err != nil {
		return nil, err
	}
	return st, nil
}

// SaveTrace stores the navigation stack.
func (s *Session) SaveTrace(ctx context.Context, st *route.Stack) error {
	return s.set(ctx, KeyTrace, st)
}

// AwaitingText reports whether the user owes free text for a TEXT_INPUT item, and where.
func (s *Session) AwaitingText(ctx context.Context) (domain.Position, bool, error) {
	var p domain.Position
	found, err := s.get(ctx, KeyAwaiting, &p)
	return p, found, err
}

// SetAwaitingText registers the one-shot expectation of free text.
func (s *Session) SetAwaitingText(ctx context.Context, p domain.Position) error {
	return s.set(ctx, KeyAwaiting, p)
}

// ClearAwaitingText drops the expectation of free text.
func (s *Session) ClearAwaitingText(ctx context.Context) error {
	return s.store.Delete(ctx, s.userID, KeyAwaiting)
}

// LastMessage returns the handle of the last engine message shown to the user.
func (s *Session) LastMessage(ctx context.Context) (LastMessage, bool, error) {
	var lm LastMessage
	found, err := s.get(ctx, KeyMessage, &lm)
	return lm, found, err
}

// SaveLastMessage records the last engine message.
func (s *Session) SaveLastMessage(ctx context.Context, lm LastMessage) error {
	return s.set(ctx, KeyMessage, lm)
}

// ClearLastMessage forgets the last engine message, so the next render is sent fresh.
func (s *Session) ClearLastMessage(ctx context.Context) error {
	return s.store.Delete(ctx, s.userID, KeyMessage)
}

// ClearDialog drops the active dialog, its position and any pending text expectation.
// Drafts are left to their callbacks.
func (s *Session) ClearDialog(ctx context.Context) error {
	for _, key := range []string{KeyDialog, KeyPosition, KeyAwaiting} {
		if err := s.store.Delete(ctx, s.userID, key); err != nil {
			return fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}
	return nil
}

// Drafts returns the draft store of one dialog.
func (s *Session) Drafts(dialogID int) ports.DraftStore {
	return &draftStore{session: s, key: draftPrefix + strconv.Itoa(dialogID)}
}

// LastMessage remembers what the engine displayed last, so it can be edited in place.
type LastMessage struct {
	Handle    domain.MessageHandle `json:"handle"`
	HasImages bool                 `json:"has_images,omitempty"`
}

func (s *Session) get(ctx context.Context, key string, v any) (bool, error) {
	raw, err := s.store.Get(ctx, s.userID, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Session) set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.store.Set(ctx, s.userID, key, raw); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
