package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
)

// LogHooks logs every lifecycle event with the engine's standard keys.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	dialog := func(msg string, level slog.Level) func(context.Context, *domain.DialogEvent) {
		return func(ctx context.Context, e *domain.DialogEvent) {
			attrs := []any{
				"user_id", e.UserID,
				"dialog_id", e.DialogID,
				"sequence_id", e.SequenceID,
			}
			if e.ItemID != 0 || e.ItemType != "" {
				attrs = append(attrs, "item_id", e.ItemID, "item_type", e.ItemType)
			}
			if e.Err != nil {
				attrs = append(attrs, "err", e.Err)
			}
			logger.Log(ctx, level, msg, attrs...)
		}
	}
	return domain.LifecycleHooks{
		OnDialogStart:   dialog("dialog_start", slog.LevelInfo),
		OnItemEnter:     dialog("item_enter", slog.LevelDebug),
		OnRetry:         dialog("retry", slog.LevelInfo),
		OnBack:          dialog("back", slog.LevelDebug),
		OnDialogFinish:  dialog("dialog_finish", slog.LevelInfo),
		OnCallbackError: dialog("callback_error", slog.LevelError),
		OnRouteFallback: func(ctx context.Context, e *domain.RouteEvent) {
			logger.WarnContext(ctx, "route_fallback", "user_id", e.UserID, "token", e.Token)
		},
	}
}

// Chain merges hooks; each event is delivered to every set in order.
func Chain(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnDialogStart = chainDialog(out.OnDialogStart, h.OnDialogStart)
		out.OnItemEnter = chainDialog(out.OnItemEnter, h.OnItemEnter)
		out.OnRetry = chainDialog(out.OnRetry, h.OnRetry)
		out.OnBack = chainDialog(out.OnBack, h.OnBack)
		out.OnDialogFinish = chainDialog(out.OnDialogFinish, h.OnDialogFinish)
		out.OnCallbackError = chainDialog(out.OnCallbackError, h.OnCallbackError)
		out.OnRouteFallback = chainRoute(out.OnRouteFallback, h.OnRouteFallback)
	}
	return out
}

type dialogHook = func(context.Context, *domain.DialogEvent)

func chainDialog(a, b dialogHook) dialogHook {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *domain.DialogEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainRoute(a, b func(context.Context, *domain.RouteEvent)) func(context.Context, *domain.RouteEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *domain.RouteEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
