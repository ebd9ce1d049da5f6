package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventDialogStart  EventType = "dialog_start"
	EventItemEnter    EventType = "item_enter"
	EventRetry        EventType = "retry"
	EventBack         EventType = "back"
	EventDialogFinish EventType = "dialog_finish"
	EventCallbackFail EventType = "callback_error"
	EventRouteFailure EventType = "route_fallback"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	UserID    int64     `json:"user_id"`
}

// DialogEvent describes a move of a user inside a dialog.
type DialogEvent struct {
	EventBase
	DialogID   int      `json:"dialog_id"`
	SequenceID int      `json:"sequence_id"`
	ItemIndex  int      `json:"item_index"`
	ItemID     int      `json:"item_id,omitempty"`
	ItemType   ItemType `json:"item_type,omitempty"`
	Err        error    `json:"-"`
}

// RouteEvent describes a token that could not be honoured as-is.
type RouteEvent struct {
	EventBase
	Token string `json:"token"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnDialogStart   func(context.Context, *DialogEvent)
	OnItemEnter     func(context.Context, *DialogEvent)
	OnRetry         func(context.Context, *DialogEvent)
	OnBack          func(context.Context, *DialogEvent)
	OnDialogFinish  func(context.Context, *DialogEvent)
	OnCallbackError func(context.Context, *DialogEvent)
	OnRouteFallback func(context.Context, *RouteEvent)
}

// NewDialogEvent stamps a dialog event.
func NewDialogEvent(typ EventType, userID int64, pos Position) *DialogEvent {
	return &DialogEvent{
		EventBase:  EventBase{Timestamp: time.Now(), Type: typ, UserID: userID},
		DialogID:   pos.DialogID,
		SequenceID: pos.SequenceID,
		ItemIndex:  pos.ItemIndex,
	}
}
