package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/route"
	"github.com/aretw0/arbor/pkg/session"
)

// DefaultRouteID is the leading integer of every token the engine emits.
const DefaultRouteID = 8

// DefaultBackLabel is the text resolver key of the synthetic back button.
const DefaultBackLabel = "nav.back"

// OutcomeKind tells the caller what to do after an engine operation.
type OutcomeKind uint8

const (
	// OutcomeStay means the engine rendered an item; nothing else to do.
	OutcomeStay OutcomeKind = iota
	// OutcomeExit means the user left the engine; the caller dispatches Outcome.Token.
	OutcomeExit
	// OutcomeIgnored means there was nothing for the engine to handle.
	OutcomeIgnored
)

// Outcome is the result of an engine operation.
type Outcome struct {
	Kind  OutcomeKind
	Token string // screen token to dispatch when Kind is OutcomeExit
}

// Exited reports whether the caller has to dispatch Token.
func (o Outcome) Exited() bool {
	return o.Kind == OutcomeExit
}

func stay() Outcome {
	return Outcome{Kind: OutcomeStay}
}

func exit(token string) Outcome {
	return Outcome{Kind: OutcomeExit, Token: token}
}

func ignored() Outcome {
	return Outcome{Kind: OutcomeIgnored}
}

// Engine is the dialog state machine.
// It is stateless between calls: every operation loads the user's Dialog,
// Position and Trace from the session store, applies one transition and saves them back.
//
// Operations are not synchronized. Callers must hold the user's lock
// (session.Manager.WithLock) for the duration of a call.
type Engine struct {
	sessions  *session.Manager
	messenger ports.Messenger
	callbacks map[int]ports.Callback

	resolver      ports.TextResolver
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	routeID       int
	defaultScreen int
	backLabel     string
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithTextResolver sets how item and option texts are resolved at render time.
func WithTextResolver(r ports.TextResolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithRouteID sets the leading integer of the emitted DDID tokens.
func WithRouteID(id int) Option {
	return func(e *Engine) {
		e.routeID = id
	}
}

// WithDefaultScreen sets the screen used when a trace has no entry point.
func WithDefaultScreen(id int) Option {
	return func(e *Engine) {
		e.defaultScreen = id
	}
}

// WithBackLabel sets the resolver key of the back button.
func WithBackLabel(key string) Option {
	return func(e *Engine) {
		e.backLabel = key
	}
}

// NewEngine creates an engine. The callback registry maps dialog ids to their
// domain logic; it is copied and never changes afterwards.
func NewEngine(sessions *session.Manager, messenger ports.Messenger, callbacks map[int]ports.Callback, opts ...Option) *Engine {
	e := &Engine{
		sessions:  sessions,
		messenger: messenger,
		callbacks: maps.Clone(callbacks),
		resolver:  ports.Identity,
		logger:    logging.NewNop(),
		routeID:   DefaultRouteID,
		backLabel: DefaultBackLabel,
	}
	if e.callbacks == nil {
		e.callbacks = make(map[int]ports.Callback)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RouteID returns the leading integer the engine claims.
func (e *Engine) RouteID() int {
	return e.routeID
}

// Hooks returns the registered lifecycle hooks.
func (e *Engine) Hooks() domain.LifecycleHooks {
	return e.hooks
}

// HasCallback reports whether a dialog id is registered.
func (e *Engine) HasCallback(dialogID int) bool {
	_, ok := e.callbacks[dialogID]
	return ok
}

// Start makes d the user's active dialog and renders its first item.
// Any previous dialog is replaced and the new dialog's draft starts empty.
func (e *Engine) Start(ctx context.Context, userID int64, d *domain.Dialog) (Outcome, error) {
	if err := d.Validate(); err != nil {
		return Outcome{}, err
	}
	if !e.HasCallback(d.ID) {
		return Outcome{}, fmt.Errorf("dialog %d: %w", d.ID, domain.ErrNoCallback)
	}

	s := e.sessions.Session(userID)
	if err := s.SaveDialog(ctx, d); err != nil {
		return Outcome{}, err
	}
	if err := s.Drafts(d.ID).ClearDraft(ctx); err != nil {
		return Outcome{}, fmt.Errorf("failed to reset draft: %w", err)
	}

	pos := domain.StartPosition(d.ID)
	e.emitDialog(ctx, e.hooks.OnDialogStart, domain.EventDialogStart, userID, pos, nil)
	e.logger.Debug("Dialog started", "user_id", userID, "dialog_id", d.ID)

	if err := e.render(ctx, s, d, pos); err != nil {
		return Outcome{}, err
	}
	return stay(), nil
}

// Select handles a forward token: an option pressed on a SELECT item,
// or a bare position token, which simply re-renders that position.
func (e *Engine) Select(ctx context.Context, userID int64, id route.DDID) (Outcome, error) {
	s := e.sessions.Session(userID)
	d, err := s.Dialog(ctx)
	if errors.Is(err, domain.ErrDialogNotFound) {
		return e.lost(ctx, s, id.Forward())
	}
	if err != nil {
		return Outcome{}, err
	}

	if id.DialogID != d.ID {
		e.logger.Info("Stale token for another dialog, re-rendering current position",
			"user_id", userID, "token", id.Forward(), "dialog_id", d.ID)
		return e.resume(ctx, s, d)
	}

	idx, ok := d.IndexOf(id.SequenceID, id.ItemID)
	if !ok {
		e.logger.Warn("Token points to an unknown item, resetting to start",
			"user_id", userID, "token", id.Forward())
		return stay(), e.render(ctx, s, d, domain.StartPosition(d.ID))
	}
	pos := domain.StartPosition(d.ID).At(id.SequenceID, idx)

	if id.OptionID == nil {
		return stay(), e.render(ctx, s, d, pos)
	}

	item := d.Items[id.ItemID]
	opt, ok := d.Option(*id.OptionID)
	if item.Type != domain.ItemSelect || !ok || !item.HasOption(opt.ID) {
		e.logger.Warn("Option does not belong to item, re-rendering",
			"user_id", userID, "token", id.Forward(), "err", domain.ErrUnknownOption)
		return stay(), e.render(ctx, s, d, pos)
	}

	if err := s.ClearAwaitingText(ctx); err != nil {
		return Outcome{}, err
	}

	res, err := e.invoke(ctx, s, d, ports.Step{
		SequenceID: pos.SequenceID,
		ItemID:     item.ID,
		OptionID:   domain.Ref(opt.ID),
	})
	if err != nil {
		return Outcome{}, err
	}

	next := func() (domain.Position, bool) {
		if opt.TargetSequenceID != nil {
			return pos.At(*opt.TargetSequenceID, 0), true
		}
		return e.advance(d, pos)
	}
	return e.apply(ctx, s, d, pos, res, next)
}

// Text delivers free text to the TEXT_INPUT item the user is expected to answer.
// It returns OutcomeIgnored when no text was expected.
func (e *Engine) Text(ctx context.Context, userID int64, text string) (Outcome, error) {
	s := e.sessions.Session(userID)
	pos, awaiting, err := s.AwaitingText(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if !awaiting {
		return ignored(), nil
	}
	// One-shot: the marker is consumed whatever happens next.
	if err := s.ClearAwaitingText(ctx); err != nil {
		return Outcome{}, err
	}

	d, err := s.Dialog(ctx)
	if errors.Is(err, domain.ErrDialogNotFound) {
		return e.lost(ctx, s, "")
	}
	if err != nil {
		return Outcome{}, err
	}

	item, err := d.ItemAt(pos.SequenceID, pos.ItemIndex)
	if err != nil || item.Type != domain.ItemTextInput || pos.DialogID != d.ID {
		e.logger.Warn("Awaited item is gone, resetting to start", "user_id", userID, "err", err)
		return stay(), e.render(ctx, s, d, domain.StartPosition(d.ID))
	}

	res, err := e.invoke(ctx, s, d, ports.Step{
		SequenceID: pos.SequenceID,
		ItemID:     item.ID,
		Answer:     &text,
	})
	if err != nil {
		return Outcome{}, err
	}

	return e.apply(ctx, s, d, pos, res, func() (domain.Position, bool) {
		return e.advance(d, pos)
	})
}

// Resume re-renders the user's current position.
// It returns OutcomeIgnored when the user has no active dialog.
func (e *Engine) Resume(ctx context.Context, userID int64) (Outcome, error) {
	s := e.sessions.Session(userID)
	d, err := s.Dialog(ctx)
	if errors.Is(err, domain.ErrDialogNotFound) {
		return ignored(), nil
	}
	if err != nil {
		return Outcome{}, err
	}
	return e.resume(ctx, s, d)
}

// Cancel drops the user's active dialog without invoking its callback.
func (e *Engine) Cancel(ctx context.Context, userID int64) error {
	return e.sessions.Session(userID).ClearDialog(ctx)
}

// Active returns the user's active dialog id, if any.
func (e *Engine) Active(ctx context.Context, userID int64) (int, bool, error) {
	d, err := e.sessions.Session(userID).Dialog(ctx)
	if errors.Is(err, domain.ErrDialogNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return d.ID, true, nil
}

func (e *Engine) resume(ctx context.Context, s *session.Session, d *domain.Dialog) (Outcome, error) {
	pos, found, err := s.Position(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if !found || pos.DialogID != d.ID {
		pos = domain.StartPosition(d.ID)
	}
	return stay(), e.render(ctx, s, d, pos)
}

// apply interprets a callback result.
// next computes the position a Continue moves to; false means the dialog is exhausted.
func (e *Engine) apply(ctx context.Context, s *session.Session, d *domain.Dialog, pos domain.Position, res domain.Result, next func() (domain.Position, bool)) (Outcome, error) {
	switch res.Kind() {
	case domain.ResultRetryCurrent:
		seq, idx, _ := res.Retry()
		retry := pos.At(seq, idx)
		e.emitDialog(ctx, e.hooks.OnRetry, domain.EventRetry, s.UserID(), retry, nil)
		return stay(), e.render(ctx, s, d, retry)

	case domain.ResultSkipAndComplete:
		return e.finish(ctx, s, d, pos)

	default:
		to, ok := next()
		if !ok {
			return e.finish(ctx, s, d, pos)
		}
		return stay(), e.render(ctx, s, d, to)
	}
}

// advance moves to the next item of the sequence, then to the next sequence.
func (e *Engine) advance(d *domain.Dialog, pos domain.Position) (domain.Position, bool) {
	seq, ok := d.Sequence(pos.SequenceID)
	if !ok {
		return domain.StartPosition(d.ID), true
	}
	if pos.ItemIndex+1 < len(seq.ItemIDs) {
		return pos.At(pos.SequenceID, pos.ItemIndex+1), true
	}
	if seq.NextSequenceID != nil {
		return pos.At(*seq.NextSequenceID, 0), true
	}
	return domain.Position{}, false
}

// finish is the completion path: the dialog state is cleared first, the callback
// is told once with Finished set, and the user is sent back to the entry point.
func (e *Engine) finish(ctx context.Context, s *session.Session, d *domain.Dialog, last domain.Position) (Outcome, error) {
	if err := s.ClearDialog(ctx); err != nil {
		return Outcome{}, err
	}
	token, err := e.collapse(ctx, s)
	if err != nil {
		return Outcome{}, err
	}

	step := ports.Step{SequenceID: last.SequenceID, Finished: true}
	if item, err := d.ItemAt(last.SequenceID, last.ItemIndex); err == nil {
		step.ItemID = item.ID
	}
	if _, err := e.invoke(ctx, s, d, step); err != nil {
		return Outcome{}, err
	}

	e.emitDialog(ctx, e.hooks.OnDialogFinish, domain.EventDialogFinish, s.UserID(), last, nil)
	e.logger.Debug("Dialog finished", "user_id", s.UserID(), "dialog_id", d.ID)
	return exit(token), nil
}

// lost handles a token for a dialog that is no longer stored.
func (e *Engine) lost(ctx context.Context, s *session.Session, token string) (Outcome, error) {
	e.logger.Warn("No active dialog, falling back to entry point",
		"user_id", s.UserID(), "token", token, "err", domain.ErrDialogNotFound)
	if err := s.ClearDialog(ctx); err != nil {
		return Outcome{}, err
	}
	entry, err := e.collapse(ctx, s)
	if err != nil {
		return Outcome{}, err
	}
	return exit(entry), nil
}

// collapse resets the trace to its entry point and returns it.
func (e *Engine) collapse(ctx context.Context, s *session.Session) (string, error) {
	st, err := s.Trace(ctx)
	if err != nil {
		return "", err
	}
	entry := st.Home(route.Screen(e.defaultScreen))
	st.SetEntryPoint(entry)
	return entry, s.SaveTrace(ctx, st)
}

// invoke runs the dialog's callback. Errors are wrapped in *domain.CallbackError.
func (e *Engine) invoke(ctx context.Context, s *session.Session, d *domain.Dialog, step ports.Step) (domain.Result, error) {
	step.UserID = s.UserID()
	step.Dialog = d
	step.Drafts = s.Drafts(d.ID)
	step.Say = func(ctx context.Context, key string, args map[string]any) {
		e.Say(ctx, step.UserID, key, args)
	}

	cb, ok := e.callbacks[d.ID]
	if !ok {
		return domain.Result{}, &domain.CallbackError{DialogID: d.ID, Err: domain.ErrNoCallback}
	}

	res, err := cb.Handle(ctx, step)
	if err != nil {
		pos := domain.StartPosition(d.ID).At(step.SequenceID, 0)
		e.emitDialog(ctx, e.hooks.OnCallbackError, domain.EventCallbackFail, s.UserID(), pos, err)
		return domain.Result{}, &domain.CallbackError{DialogID: d.ID, Err: err}
	}
	return res, nil
}

func (e *Engine) emitDialog(ctx context.Context, hook func(context.Context, *domain.DialogEvent), typ domain.EventType, userID int64, pos domain.Position, err error) {
	if hook == nil {
		return
	}
	ev := domain.NewDialogEvent(typ, userID, pos)
	ev.Err = err
	hook(ctx, ev)
}
