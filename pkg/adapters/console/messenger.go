// Package console runs dialogs in a terminal: a Messenger that prints messages
// with numbered buttons, and a Loop that turns typed lines into router events.
package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"go.uber.org/atomic"
)

// Renderer turns message text (markdown) into terminal output.
type Renderer func(string) (string, error)

// NewMarkdownRenderer renders markdown with glamour, detecting a light or dark background.
func NewMarkdownRenderer() Renderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return nil
	}
	return r.Render
}

// Messenger implements ports.Messenger on a terminal.
// A terminal cannot rewrite past output, so an edit prints the new version below.
// The buttons of the latest message per user are kept so a typed number can be
// mapped back to its payload.
type Messenger struct {
	out      io.Writer
	render   Renderer
	profile  termenv.Profile
	seq      atomic.Int64
	mu       sync.Mutex
	live     map[domain.MessageHandle]int64
	choices  map[int64][]domain.Button
	printSep bool
}

var _ ports.Messenger = (*Messenger)(nil)

// MessengerOption configures the Messenger.
type MessengerOption func(*Messenger)

// WithRenderer sets the text renderer. A nil renderer prints text verbatim.
func WithRenderer(r Renderer) MessengerOption {
	return func(m *Messenger) {
		m.render = r
	}
}

// WithProfile sets the color profile used for buttons; termenv.Ascii disables colors.
func WithProfile(p termenv.Profile) MessengerOption {
	return func(m *Messenger) {
		m.profile = p
	}
}

// NewMessenger creates a messenger writing to out.
func NewMessenger(out io.Writer, opts ...MessengerOption) *Messenger {
	m := &Messenger{
		out:     out,
		profile: termenv.Ascii,
		live:    make(map[domain.MessageHandle]int64),
		choices: make(map[int64][]domain.Button),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Messenger) Send(ctx context.Context, userID int64, msg domain.Message) (domain.MessageHandle, error) {
	h := domain.MessageHandle(fmt.Sprintf("tty:%d", m.seq.Inc()))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.live[h] = userID
	return h, m.print(userID, msg)
}

func (m *Messenger) Edit(ctx context.Context, userID int64, handle domain.MessageHandle, msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if owner, ok := m.live[handle]; !ok || owner != userID {
		return fmt.Errorf("edit %s: unknown message", handle)
	}
	return m.print(userID, msg)
}

func (m *Messenger) Delete(ctx context.Context, userID int64, handle domain.MessageHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, handle)
	return nil
}

// Choice returns the payload of the n-th button (1-based) of the latest message shown to the user.
func (m *Messenger) Choice(userID int64, n int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buttons := m.choices[userID]
	if n < 1 || n > len(buttons) {
		return "", false
	}
	return buttons[n-1].Payload, true
}

func (m *Messenger) print(userID int64, msg domain.Message) error {
	var b strings.Builder
	if m.printSep {
		b.WriteString("\n")
	}
	m.printSep = true

	text := msg.Text
	if m.render != nil {
		if rendered, err := m.render(text); err == nil {
			text = rendered
		}
	}
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n")

	for _, img := range msg.Images {
		fmt.Fprintf(&b, "  🖼  %s\n", img)
	}

	// Buttons are numbered across rows; a message without buttons keeps the previous ones
	// so a notice never disables the menu above it.
	if len(msg.Buttons) > 0 {
		var flat []domain.Button
		for _, row := range msg.Buttons {
			cells := make([]string, 0, len(row))
			for _, btn := range row {
				flat = append(flat, btn)
				label := fmt.Sprintf("[%d] %s", len(flat), btn.Text)
				cells = append(cells, termenv.String(label).Foreground(m.profile.Color("#a78bfa")).String())
			}
			b.WriteString("  ")
			b.WriteString(strings.Join(cells, "   "))
			b.WriteString("\n")
		}
		m.choices[userID] = flat
	}

	_, err := io.WriteString(m.out, b.String())
	return err
}
