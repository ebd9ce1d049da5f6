package runtime

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/route"
	"github.com/aretw0/arbor/pkg/session"
)

// render displays the item at pos and records it as the user's current position.
// Unknown coordinates are reset to the start of the dialog.
func (e *Engine) render(ctx context.Context, s *session.Session, d *domain.Dialog, pos domain.Position) error {
	item, err := d.ItemAt(pos.SequenceID, pos.ItemIndex)
	if err != nil {
		e.logger.Warn("Position is not part of the dialog, resetting to start",
			"user_id", s.UserID(),
			"dialog_id", d.ID,
			"sequence_id", pos.SequenceID,
			"err", err,
		)
		pos = domain.StartPosition(d.ID)
		if item, err = d.ItemAt(pos.SequenceID, pos.ItemIndex); err != nil {
			return fmt.Errorf("dialog %d cannot be rendered: %w", d.ID, err)
		}
	}

	id := route.DDID{RouteID: e.routeID, DialogID: d.ID, SequenceID: pos.SequenceID, ItemID: item.ID}
	msg := e.compose(d, item, id)

	if item.Type == domain.ItemTextInput {
		if err := s.SetAwaitingText(ctx, pos); err != nil {
			return err
		}
	} else if err := s.ClearAwaitingText(ctx); err != nil {
		return err
	}

	if err := s.SavePosition(ctx, pos); err != nil {
		return err
	}
	st, err := s.Trace(ctx)
	if err != nil {
		return err
	}
	if st.Len() == 0 {
		// A dialog started without a screen underneath still finishes somewhere.
		st.SetEntryPoint(route.Screen(e.defaultScreen))
	}
	st.Push(id.Trace())
	if err := s.SaveTrace(ctx, st); err != nil {
		return err
	}

	if err := e.Show(ctx, s.UserID(), msg); err != nil {
		return err
	}

	if e.hooks.OnItemEnter != nil {
		ev := domain.NewDialogEvent(domain.EventItemEnter, s.UserID(), pos)
		ev.ItemID = item.ID
		ev.ItemType = item.Type
		e.hooks.OnItemEnter(ctx, ev)
	}
	return nil
}

// compose builds the message of an item. Texts are resolved here, never stored resolved.
func (e *Engine) compose(d *domain.Dialog, item domain.Item, id route.DDID) domain.Message {
	msg := domain.Message{
		Text:   e.resolver.Get(item.Text, item.Args),
		Images: append([]string(nil), item.Images...),
	}

	if item.Type == domain.ItemSelect {
		opts := d.OptionsOf(item)
		sort.SliceStable(opts, func(i, j int) bool { return opts[i].Row < opts[j].Row })

		var row []domain.Button
		for i, o := range opts {
			if i > 0 && o.Row != opts[i-1].Row {
				msg.Buttons = append(msg.Buttons, row)
				row = nil
			}
			payload := o.CallbackData
			if payload == "" {
				payload = id.WithOption(o.ID).Forward()
			}
			row = append(row, domain.Button{Text: e.resolver.Get(o.Text, nil), Payload: payload})
		}
		if len(row) > 0 {
			msg.Buttons = append(msg.Buttons, row)
		}
	}

	msg.Buttons = append(msg.Buttons, []domain.Button{{
		Text:    e.resolver.Get(e.backLabel, nil),
		Payload: id.Back(),
	}})
	return msg
}

// Show displays msg to the user, replacing the last message when possible.
// Text-only messages are edited in place; a failed edit degrades to a fresh send.
// Messages with images always replace the previous one.
// Delivery failures are logged and never returned.
func (e *Engine) Show(ctx context.Context, userID int64, msg domain.Message) error {
	s := e.sessions.Session(userID)
	last, found, err := s.LastMessage(ctx)
	if err != nil {
		return err
	}

	hasImages := len(msg.Images) > 0
	if found && !hasImages && !last.HasImages {
		err := e.messenger.Edit(ctx, userID, last.Handle, msg)
		if err == nil {
			return nil
		}
		e.logger.Debug("Edit failed, sending a new message", "user_id", userID, "err", err)
	} else if found {
		if err := e.messenger.Delete(ctx, userID, last.Handle); err != nil {
			e.logger.Debug("Failed to delete previous message", "user_id", userID, "err", err)
		}
	}

	handle, err := e.messenger.Send(ctx, userID, msg)
	if err != nil {
		e.logger.Error("Failed to deliver message", "user_id", userID, "err", err)
		return nil
	}
	return s.SaveLastMessage(ctx, session.LastMessage{Handle: handle, HasImages: hasImages})
}

// Resolve resolves a text key through the engine's text resolver.
func (e *Engine) Resolve(key string, args map[string]any) string {
	return e.resolver.Get(key, args)
}

// Say sends a standalone notice (a validation error, an apology) resolved through
// the text resolver. It does not replace the last message, so the next render
// appears below it.
func (e *Engine) Say(ctx context.Context, userID int64, key string, args map[string]any) {
	msg := domain.Message{Text: e.resolver.Get(key, args)}
	if _, err := e.messenger.Send(ctx, userID, msg); err != nil {
		e.logger.Error("Failed to deliver notice", "user_id", userID, "err", err)
		return
	}
	if err := e.sessions.Session(userID).ClearLastMessage(ctx); err != nil {
		e.logger.Warn("Failed to forget last message", "user_id", userID, "err", err)
	}
}
