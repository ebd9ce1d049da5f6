package runtime

import (
	"context"
	"errors"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/route"
	"github.com/aretw0/arbor/pkg/session"
)

// Back handles the back sentinel of the item identified by id.
//
// The trace is popped once. When the new top is a position of the active dialog,
// that item is restored and re-rendered. When the trace has collapsed to its
// entry point, or the new top is a static screen, the dialog is dropped and the
// caller dispatches that screen.
func (e *Engine) Back(ctx context.Context, userID int64, id route.DDID) (Outcome, error) {
	s := e.sessions.Session(userID)
	d, err := s.Dialog(ctx)
	if errors.Is(err, domain.ErrDialogNotFound) {
		return e.lost(ctx, s, id.Back())
	}
	if err != nil {
		return Outcome{}, err
	}

	st, err := s.Trace(ctx)
	if err != nil {
		return Outcome{}, err
	}

	// A stale back button (from a message further up) rewinds to where it was pressed.
	if i := st.Index(id.Trace()); i >= 0 {
		st.TruncateTo(i)
	} else if id.DialogID != d.ID {
		e.logger.Info("Stale back token, re-rendering current position",
			"user_id", userID, "token", id.Back())
		return e.resume(ctx, s, d)
	}

	st.Pop()
	pos := domain.StartPosition(d.ID)
	left, _ := d.IndexOf(id.SequenceID, id.ItemID)
	e.emitDialog(ctx, e.hooks.OnBack, domain.EventBack, userID, pos.At(id.SequenceID, left), nil)

	top, ok := st.Peek()
	if !ok || st.Len() <= 1 {
		return e.leave(ctx, s, st, top)
	}

	r, err := route.Decode(top)
	if err != nil || r.Kind == route.KindScreen || r.Kind == route.KindStaticBack {
		return e.leave(ctx, s, st, top)
	}
	if r.DDID.DialogID != d.ID {
		return e.leave(ctx, s, st, "")
	}

	idx, found := d.IndexOf(r.DDID.SequenceID, r.DDID.ItemID)
	if !found {
		e.logger.Warn("Trace points to an unknown item, resetting to start",
			"user_id", userID, "token", top)
	} else {
		pos = pos.At(r.DDID.SequenceID, idx)
	}

	// The pop is persisted before render pushes the restored token back.
	if err := s.SaveTrace(ctx, st); err != nil {
		return Outcome{}, err
	}
	return stay(), e.render(ctx, s, d, pos)
}

// leave exits the engine to a static screen left on the trace,
// or to the entry point when there is none.
func (e *Engine) leave(ctx context.Context, s *session.Session, st *route.Stack, token string) (Outcome, error) {
	if err := s.ClearDialog(ctx); err != nil {
		return Outcome{}, err
	}

	r, err := route.Decode(token)
	if token != "" && err == nil && r.Kind == route.KindScreen {
		if err := s.SaveTrace(ctx, st); err != nil {
			return Outcome{}, err
		}
		return exit(token), nil
	}

	entry := st.Home(route.Screen(e.defaultScreen))
	st.SetEntryPoint(entry)
	if err := s.SaveTrace(ctx, st); err != nil {
		return Outcome{}, err
	}
	return exit(entry), nil
}
