package console

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// DefaultOptions picks markdown rendering and colors for a terminal, plain text otherwise.
func DefaultOptions(out *os.File) []MessengerOption {
	if !IsTerminal(out) {
		return []MessengerOption{WithProfile(termenv.Ascii)}
	}
	return []MessengerOption{
		WithRenderer(NewMarkdownRenderer()),
		WithProfile(termenv.EnvColorProfile()),
	}
}
