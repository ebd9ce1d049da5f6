package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// Messenger delivers rendered messages to a user over the chat channel.
// Failures are never fatal to the engine: a failed edit degrades to a fresh send,
// a failed send is logged.
type Messenger interface {
	Send(ctx context.Context, userID int64, msg domain.Message) (domain.MessageHandle, error)
	Edit(ctx context.Context, userID int64, handle domain.MessageHandle, msg domain.Message) error
	Delete(ctx context.Context, userID int64, handle domain.MessageHandle) error
}

// TextResolver turns item and option texts into user-facing strings at render time.
// Unknown keys resolve to themselves, so literal text passes through unchanged.
type TextResolver interface {
	Get(key string, args map[string]any) string
}

// TextFunc adapts a function to TextResolver.
type TextFunc func(key string, args map[string]any) string

func (f TextFunc) Get(key string, args map[string]any) string {
	return f(key, args)
}

// Identity is a TextResolver that returns every key verbatim.
var Identity TextResolver = TextFunc(func(key string, _ map[string]any) string { return key })
