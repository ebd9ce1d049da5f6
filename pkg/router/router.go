package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"runtime/debug"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/route"
	"github.com/aretw0/arbor/pkg/session"
)

// DefaultApologyKey is the text resolver key sent when a step fails unexpectedly.
const DefaultApologyKey = "error.generic"

// Event is one inbound interaction of a user.
// Token is the pressed button's payload; Text is free text. Both empty means "show me where I am".
type Event struct {
	UserID int64  `json:"user_id"`
	Token  string `json:"token,omitempty"`
	Text   string `json:"text,omitempty"`
}

// Router is the single inbound entry point. It binds the per-user session,
// the navigation stack, the static screen registry and the dialog engine.
type Router struct {
	sessions *session.Manager
	engine   *runtime.Engine
	screens  map[int]ScreenHandler

	defaultScreen int
	apologyKey    string
	backLabel     string
	logger        *slog.Logger
	observe       EventObserver
	maxInput      int
}

// EventObserver is told about every handled event, e.g. to record latency.
type EventObserver func(ctx context.Context, ev Event, elapsed time.Duration, err error)

// Option configures the Router.
type Option func(*Router)

// WithDefaultScreen sets the screen used for malformed tokens and empty traces.
func WithDefaultScreen(id int) Option {
	return func(r *Router) {
		r.defaultScreen = id
	}
}

// WithApologyKey sets the text key sent when a step fails.
func WithApologyKey(key string) Option {
	return func(r *Router) {
		r.apologyKey = key
	}
}

// WithBackLabel sets the text key of static back buttons.
func WithBackLabel(key string) Option {
	return func(r *Router) {
		r.backLabel = key
	}
}

// WithLogger sets the router logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithEventObserver registers fn to run after each HandleEvent.
func WithEventObserver(fn EventObserver) Option {
	return func(r *Router) {
		r.observe = fn
	}
}

// New creates a router. The screen registry is copied and never changes afterwards.
func New(sessions *session.Manager, engine *runtime.Engine, screens map[int]ScreenHandler, opts ...Option) *Router {
	r := &Router{
		sessions:   sessions,
		engine:     engine,
		screens:    maps.Clone(screens),
		apologyKey: DefaultApologyKey,
		backLabel:  runtime.DefaultBackLabel,
		logger:     logging.NewNop(),
	}
	if r.screens == nil {
		r.screens = make(map[int]ScreenHandler)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleEvent processes one event to completion while holding the user's lock.
// Errors and panics raised by screens or callbacks are caught here: the user gets
// an apology, the active dialog is dropped and the entry point is rendered.
//
// Free text is sanitized first; rejected input is returned as an error
// without touching the session.
func (r *Router) HandleEvent(ctx context.Context, ev Event) error {
	if ev.Text != "" {
		clean, err := r.sanitize(ev.UserID, ev.Text)
		if err != nil {
			return err
		}
		ev.Text = clean
	}

	start := time.Now()
	err := r.sessions.WithLock(ctx, ev.UserID, func(ctx context.Context) error {
		if err := r.guard(func() error { return r.dispatch(ctx, ev) }); err != nil {
			return r.rescue(ctx, ev, err)
		}
		return nil
	})
	r.logger.Debug("Event handled",
		"user_id", ev.UserID,
		"token", ev.Token,
		"duration", time.Since(start),
	)
	if r.observe != nil {
		r.observe(ctx, ev, time.Since(start), err)
	}
	return err
}

// SetEntryPoint resets the user's trace to [token]. Calling it twice is harmless.
func (r *Router) SetEntryPoint(ctx context.Context, userID int64, token string) error {
	return r.sessions.WithLock(ctx, userID, func(ctx context.Context) error {
		s := r.sessions.Session(userID)
		st, err := s.Trace(ctx)
		if err != nil {
			return err
		}
		st.SetEntryPoint(token)
		return s.SaveTrace(ctx, st)
	})
}

// Execute pushes token onto the user's trace and dispatches it.
func (r *Router) Execute(ctx context.Context, userID int64, token string) error {
	return r.sessions.WithLock(ctx, userID, func(ctx context.Context) error {
		return r.execute(ctx, userID, token)
	})
}

// Back performs static back navigation: pop the trace and dispatch the new top.
func (r *Router) Back(ctx context.Context, userID int64) error {
	return r.sessions.WithLock(ctx, userID, func(ctx context.Context) error {
		return r.back(ctx, userID)
	})
}

// StartDialog starts d for the user.
func (r *Router) StartDialog(ctx context.Context, userID int64, d *domain.Dialog) error {
	return r.sessions.WithLock(ctx, userID, func(ctx context.Context) error {
		return r.startDialog(ctx, userID, d, "")
	})
}

func (r *Router) dispatch(ctx context.Context, ev Event) error {
	if ev.Token != "" {
		return r.execute(ctx, ev.UserID, ev.Token)
	}

	var (
		out runtime.Outcome
		err error
	)
	if ev.Text != "" {
		out, err = r.engine.Text(ctx, ev.UserID, ev.Text)
	} else {
		out, err = r.engine.Resume(ctx, ev.UserID)
	}
	if err != nil {
		return err
	}
	if out.Kind == runtime.OutcomeIgnored {
		return r.home(ctx, ev.UserID)
	}
	return r.follow(ctx, ev.UserID, out)
}

func (r *Router) execute(ctx context.Context, userID int64, token string) error {
	rt := route.Parse(token, r.defaultScreen)
	if rt.Fallback {
		r.fallback(ctx, userID, token)
	}

	switch rt.Kind {
	case route.KindStaticBack:
		return r.back(ctx, userID)

	case route.KindForward, route.KindBack:
		if rt.DDID.RouteID == r.engine.RouteID() {
			var out runtime.Outcome
			var err error
			if rt.Kind == route.KindBack {
				out, err = r.engine.Back(ctx, userID, rt.DDID)
			} else {
				out, err = r.engine.Select(ctx, userID, rt.DDID)
			}
			if err != nil {
				return err
			}
			return r.follow(ctx, userID, out)
		}
		// Only the leading integer picks the handler; the rest become screen args.
		return r.show(ctx, userID, route.Route{
			Kind:     route.KindScreen,
			Raw:      rt.Raw,
			ScreenID: rt.Leading(),
			Args:     ddidArgs(rt),
		})
	}

	return r.show(ctx, userID, rt)
}

func (r *Router) show(ctx context.Context, userID int64, rt route.Route) error {
	h, ok := r.screens[rt.ScreenID]
	if !ok {
		if rt.ScreenID == r.defaultScreen {
			return fmt.Errorf("default screen %d: %w", rt.ScreenID, domain.ErrNoHandler)
		}
		r.fallback(ctx, userID, rt.Raw)
		return r.show(ctx, userID, route.Route{Kind: route.KindScreen, ScreenID: r.defaultScreen, Raw: route.Screen(r.defaultScreen)})
	}

	token := rt.Raw
	if rt.Fallback || token == "" {
		token = route.Screen(rt.ScreenID, rt.Args...)
	}

	s := r.sessions.Session(userID)
	st, err := s.Trace(ctx)
	if err != nil {
		return err
	}

	if isEntryPoint(h) {
		if err := r.engine.Cancel(ctx, userID); err != nil {
			return err
		}
		st.SetEntryPoint(token)
	} else if st.Len() == 0 {
		// A deep link on first contact sits on top of the default screen,
		// so the bottom of the trace is always somewhere to come home to.
		st.SetEntryPoint(route.Screen(r.defaultScreen))
		st.Push(token)
	} else if top, ok := st.Peek(); ok && sameScreen(top, rt.ScreenID) && st.Index(token) < 0 {
		// Paging within a screen replaces it rather than stacking pages.
		st.ReplaceCurrent(token)
	} else {
		st.Push(token)
	}
	if err := s.SaveTrace(ctx, st); err != nil {
		return err
	}

	return h.Render(ctx, &Screen{
		UserID: userID,
		ID:     rt.ScreenID,
		Args:   rt.Args,
		Token:  token,
		router: r,
	})
}

func (r *Router) back(ctx context.Context, userID int64) error {
	s := r.sessions.Session(userID)
	st, err := s.Trace(ctx)
	if err != nil {
		return err
	}

	st.Pop()
	top, ok := st.Peek()
	if !ok {
		return r.home(ctx, userID)
	}
	if err := s.SaveTrace(ctx, st); err != nil {
		return err
	}
	return r.execute(ctx, userID, top)
}

// startDialog starts d. A launcher screen on top of the trace is dropped first,
// so backing out of the dialog returns to whatever opened the launcher.
func (r *Router) startDialog(ctx context.Context, userID int64, d *domain.Dialog, launcher string) error {
	if launcher != "" {
		s := r.sessions.Session(userID)
		st, err := s.Trace(ctx)
		if err != nil {
			return err
		}
		if top, ok := st.Peek(); ok && top == launcher && st.Len() > 1 {
			st.Pop()
			if err := s.SaveTrace(ctx, st); err != nil {
				return err
			}
		}
	}

	out, err := r.engine.Start(ctx, userID, d)
	if err != nil {
		return err
	}
	return r.follow(ctx, userID, out)
}

// home renders the entry point of the user's trace, or the default screen.
func (r *Router) home(ctx context.Context, userID int64) error {
	st, err := r.sessions.Session(userID).Trace(ctx)
	if err != nil {
		return err
	}
	return r.execute(ctx, userID, st.Home(route.Screen(r.defaultScreen)))
}

func (r *Router) follow(ctx context.Context, userID int64, out runtime.Outcome) error {
	if out.Exited() {
		return r.execute(ctx, userID, out.Token)
	}
	return nil
}

// guard turns a panic into an error.
func (r *Router) guard(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Recovered from panic", "panic", p, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}

func (r *Router) rescue(ctx context.Context, ev Event, cause error) error {
	attrs := []any{"user_id", ev.UserID, "token", ev.Token, "err", cause}
	var cerr *domain.CallbackError
	if errors.As(cause, &cerr) {
		attrs = append(attrs, "dialog_id", cerr.DialogID)
	}
	r.logger.Error("Step failed, returning user to the entry point", attrs...)

	r.engine.Say(ctx, ev.UserID, r.apologyKey, nil)
	if err := r.engine.Cancel(ctx, ev.UserID); err != nil {
		return fmt.Errorf("failed to cancel dialog after %v: %w", cause, err)
	}
	return r.guard(func() error { return r.home(ctx, ev.UserID) })
}

func (r *Router) fallback(ctx context.Context, userID int64, token string) {
	r.logger.Warn("Unroutable token, falling back to default screen",
		"user_id", userID, "token", token, "err", domain.ErrMalformedRoute)
	if hook := r.engine.Hooks().OnRouteFallback; hook != nil {
		hook(ctx, &domain.RouteEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRouteFailure, UserID: userID},
			Token:     token,
		})
	}
}

func sameScreen(token string, screenID int) bool {
	rt, err := route.Decode(token)
	return err == nil && rt.Kind == route.KindScreen && rt.ScreenID == screenID
}

func ddidArgs(rt route.Route) []int {
	args := []int{rt.DDID.DialogID, rt.DDID.SequenceID, rt.DDID.ItemID}
	if rt.Kind == route.KindBack {
		args = append([]int{route.BackMarker}, args...)
	}
	if rt.DDID.OptionID != nil {
		args = append(args, *rt.DDID.OptionID)
	}
	return args
}
