package router

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize bounds free text in bytes unless ARBOR_MAX_INPUT_SIZE says otherwise.
const DefaultMaxInputSize = 4096

// EnvMaxInputSize overrides DefaultMaxInputSize.
const EnvMaxInputSize = "ARBOR_MAX_INPUT_SIZE"

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// InputError reports free text the router refused before touching the session.
// It unwraps to ErrInputTooLarge or ErrInvalidUTF8.
type InputError struct {
	UserID int64
	Size   int
	Limit  int
	Err    error
}

func (e *InputError) Error() string {
	if errors.Is(e.Err, ErrInputTooLarge) {
		return fmt.Sprintf("user %d: %v (size=%d limit=%d)", e.UserID, e.Err, e.Size, e.Limit)
	}
	return fmt.Sprintf("user %d: %v", e.UserID, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// WithMaxInputSize bounds free text in bytes. Zero or less restores the default.
func WithMaxInputSize(n int) Option {
	return func(r *Router) {
		r.maxInput = n
	}
}

// sanitize rejects oversized or malformed text and drops control characters
// other than newline, tab and carriage return. Oversized text is never truncated,
// so a callback never sees half an answer.
func (r *Router) sanitize(userID int64, text string) (string, error) {
	limit := r.maxInput
	if limit <= 0 {
		limit = maxInputSizeFromEnv()
	}
	if len(text) > limit {
		return "", &InputError{UserID: userID, Size: len(text), Limit: limit, Err: ErrInputTooLarge}
	}
	if !utf8.ValidString(text) {
		return "", &InputError{UserID: userID, Size: len(text), Limit: limit, Err: ErrInvalidUTF8}
	}
	if strings.IndexFunc(text, unsafeControl) < 0 {
		return text, nil
	}
	return strings.Map(func(c rune) rune {
		if unsafeControl(c) {
			return -1
		}
		return c
	}, text), nil
}

func unsafeControl(c rune) bool {
	return unicode.IsControl(c) && c != '\n' && c != '\t' && c != '\r'
}

func maxInputSizeFromEnv() int {
	if n, err := strconv.Atoi(os.Getenv(EnvMaxInputSize)); err == nil && n > 0 {
		return n
	}
	return DefaultMaxInputSize
}
