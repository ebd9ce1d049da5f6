package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDialogNotFound is returned when no active dialog is stored for a user.
	ErrDialogNotFound = errors.New("dialog not found")

	// ErrUnknownSequence is returned when a position references a missing sequence.
	ErrUnknownSequence = errors.New("unknown sequence")

	// ErrUnknownItem is returned when a position references a missing item.
	ErrUnknownItem = errors.New("unknown item")

	// ErrUnknownOption is returned when a selection references an option the item does not own.
	ErrUnknownOption = errors.New("unknown option")

	// ErrMalformedRoute is reported when a route token cannot be parsed.
	ErrMalformedRoute = errors.New("malformed route")

	// ErrKeyNotFound is returned by session stores when a key is absent.
	ErrKeyNotFound = errors.New("session key not found")

	// ErrNoCallback is returned when a dialog has no registered callback.
	ErrNoCallback = errors.New("no callback registered")

	// ErrNoHandler is returned when a screen id has no registered handler.
	ErrNoHandler = errors.New("no handler registered")
)

// CallbackError wraps a failure raised by a dialog callback.
type CallbackError struct {
	DialogID int
	Err      error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("callback for dialog %d failed: %v", e.DialogID, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}
