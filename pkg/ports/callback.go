package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// DraftStore gives a callback access to its per-user, per-dialog draft.
// The engine never inspects the bytes.
type DraftStore interface {
	LoadDraft(ctx context.Context) ([]byte, error)
	SaveDraft(ctx context.Context, data []byte) error
	ClearDraft(ctx context.Context) error
}

// Step is what the engine hands to a callback on every interaction.
type Step struct {
	UserID     int64
	Dialog     *domain.Dialog
	SequenceID int
	ItemID     int
	OptionID   *int    // set when an option was pressed
	Answer     *string // set when free text was received
	Finished   bool    // true exactly once, when the dialog completes

	Drafts DraftStore

	// Say sends a standalone notice to the user, e.g. a validation error
	// before returning RetryCurrent. The key goes through the text resolver.
	Say func(ctx context.Context, key string, args map[string]any)
}

// Callback holds the domain logic of one dialog.
// Side effects (accumulating the draft, final writes, validation messages)
// are entirely the callback's responsibility.
type Callback interface {
	Handle(ctx context.Context, step Step) (domain.Result, error)
}

// CallbackFunc adapts a function to Callback.
type CallbackFunc func(ctx context.Context, step Step) (domain.Result, error)

func (f CallbackFunc) Handle(ctx context.Context, step Step) (domain.Result, error) {
	return f(ctx, step)
}
