package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"go.uber.org/atomic"
)

// ErrMessageNotFound is returned when editing or deleting an unknown handle.
var ErrMessageNotFound = errors.New("message not found")

// Delivery is one message as currently displayed to a user.
type Delivery struct {
	Handle  domain.MessageHandle
	UserID  int64
	Message domain.Message
	Edits   int
}

// Messenger implements ports.Messenger by keeping messages in memory.
// It backs tests and the HTTP outbox transport.
type Messenger struct {
	mu      sync.Mutex
	seq     atomic.Int64
	order   []domain.MessageHandle
	live    map[domain.MessageHandle]*Delivery
	pending map[int64][]Delivery

	// FailEdits makes every Edit fail, to exercise the send fallback.
	FailEdits bool
}

// NewMessenger creates an empty messenger.
func NewMessenger() *Messenger {
	return &Messenger{
		live:    make(map[domain.MessageHandle]*Delivery),
		pending: make(map[int64][]Delivery),
	}
}

// Send records a new message.
func (m *Messenger) Send(ctx context.Context, userID int64, msg domain.Message) (domain.MessageHandle, error) {
	h := domain.MessageHandle(fmt.Sprintf("%d:%d", userID, m.seq.Inc()))
	d := &Delivery{Handle: h, UserID: userID, Message: msg}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.live[h] = d
	m.order = append(m.order, h)
	m.pending[userID] = append(m.pending[userID], *d)
	return h, nil
}

// Edit replaces the content of a live message.
func (m *Messenger) Edit(ctx context.Context, userID int64, handle domain.MessageHandle, msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailEdits {
		return fmt.Errorf("edit %s: %w", handle, ErrMessageNotFound)
	}
	d, ok := m.live[handle]
	if !ok || d.UserID != userID {
		return fmt.Errorf("edit %s: %w", handle, ErrMessageNotFound)
	}
	d.Message = msg
	d.Edits++
	m.pending[userID] = append(m.pending[userID], *d)
	return nil
}

// Delete removes a live message.
func (m *Messenger) Delete(ctx context.Context, userID int64, handle domain.MessageHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.live[handle]
	if !ok || d.UserID != userID {
		return fmt.Errorf("delete %s: %w", handle, ErrMessageNotFound)
	}
	delete(m.live, handle)
	return nil
}

// Last returns the most recently sent message still displayed to the user, with its latest content.
func (m *Messenger) Last(userID int64) (Delivery, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.order) - 1; i >= 0; i-- {
		if d, ok := m.live[m.order[i]]; ok && d.UserID == userID {
			return *d, true
		}
	}
	return Delivery{}, false
}

// Sent returns the number of distinct messages sent so far.
func (m *Messenger) Sent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// Drain returns and forgets every send or edit delivered to the user since the last drain.
func (m *Messenger) Drain(userID int64) []Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.pending[userID]
	delete(m.pending, userID)
	return out
}
