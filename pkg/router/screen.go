package router

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/route"
)

// ScreenHandler renders a static screen.
type ScreenHandler interface {
	Render(ctx context.Context, sc *Screen) error
}

// ScreenFunc adapts a function to ScreenHandler.
type ScreenFunc func(ctx context.Context, sc *Screen) error

func (f ScreenFunc) Render(ctx context.Context, sc *Screen) error {
	return f(ctx, sc)
}

type entryPoint struct {
	ScreenHandler
}

// AsEntryPoint marks a screen as a top-level entry point.
// Entering it resets the user's trace to [token] and cancels any active dialog.
func AsEntryPoint(h ScreenHandler) ScreenHandler {
	return entryPoint{h}
}

func isEntryPoint(h ScreenHandler) bool {
	_, ok := h.(entryPoint)
	return ok
}

// Screen is what a handler gets to work with while the user's lock is held.
type Screen struct {
	UserID int64
	ID     int
	Args   []int
	Token  string

	router *Router
}

// Show displays msg in place of the user's last message.
func (s *Screen) Show(ctx context.Context, msg domain.Message) error {
	return s.router.engine.Show(ctx, s.UserID, msg)
}

// Say sends a standalone notice.
func (s *Screen) Say(ctx context.Context, key string, args map[string]any) {
	s.router.engine.Say(ctx, s.UserID, key, args)
}

// T resolves a text key.
func (s *Screen) T(key string, args map[string]any) string {
	return s.router.engine.Resolve(key, args)
}

// Button builds a button that navigates to a screen.
func (s *Screen) Button(key string, screenID int, args ...int) domain.Button {
	return domain.Button{Text: s.T(key, nil), Payload: route.Screen(screenID, args...)}
}

// BackButton builds the generic static back button.
func (s *Screen) BackButton() domain.Button {
	return domain.Button{Text: s.T(s.router.backLabel, nil), Payload: route.StaticBack}
}

// StartDialog hands the user over to the engine.
// The screen itself leaves the trace: backing out of the dialog skips it.
func (s *Screen) StartDialog(ctx context.Context, d *domain.Dialog) error {
	return s.router.startDialog(ctx, s.UserID, d, s.Token)
}
