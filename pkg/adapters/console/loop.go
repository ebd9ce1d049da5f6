package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/route"
	"github.com/aretw0/arbor/pkg/router"
)

// Commands understood by the loop in addition to button numbers and free text.
const (
	CommandQuit = "/quit"
	CommandBack = "/back"
	CommandMenu = "/menu"
)

// EventHandler is the inbound side of the engine.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev router.Event) error
}

// Loop reads lines from a terminal and feeds them to the router as one user.
type Loop struct {
	reader    *bufio.Reader
	out       io.Writer
	handler   EventHandler
	messenger *Messenger
	userID    int64
	menuToken string
	logger    *slog.Logger

	lines     chan lineResult
	startOnce sync.Once
}

type lineResult struct {
	text string
	err  error
}

// LoopOption configures the Loop.
type LoopOption func(*Loop)

// WithMenuToken sets the token sent by /menu.
func WithMenuToken(token string) LoopOption {
	return func(l *Loop) {
		l.menuToken = token
	}
}

// WithLoopLogger sets the loop logger.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// NewLoop creates a loop for userID. The messenger must be the one the engine renders with,
// so typed numbers resolve against the buttons on screen.
func NewLoop(in io.Reader, out io.Writer, handler EventHandler, messenger *Messenger, userID int64, opts ...LoopOption) *Loop {
	l := &Loop{
		reader:    bufio.NewReader(in),
		out:       out,
		handler:   handler,
		messenger: messenger,
		userID:    userID,
		menuToken: route.Screen(0),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run shows the user's current position and processes lines until /quit, EOF or ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.handler.HandleEvent(ctx, router.Event{UserID: l.userID}); err != nil {
		return err
	}

	for {
		line, err := l.read(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		ev, quit := l.event(line)
		if quit {
			return nil
		}
		if ev == nil {
			continue
		}
		if err := l.handler.HandleEvent(ctx, *ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Warn("event rejected", "user_id", l.userID, "err", err)
			fmt.Fprintf(l.out, "Error: %v. Please try again.\n", err)
		}
	}
}

// event maps a typed line to a router event. A nil event means nothing to do.
func (l *Loop) event(line string) (*router.Event, bool) {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return nil, false
	case CommandQuit, "/exit":
		return nil, true
	case CommandBack:
		return &router.Event{UserID: l.userID, Token: route.StaticBack}, false
	case CommandMenu:
		return &router.Event{UserID: l.userID, Token: l.menuToken}, false
	}

	if n, err := strconv.Atoi(line); err == nil {
		if token, ok := l.messenger.Choice(l.userID, n); ok {
			return &router.Event{UserID: l.userID, Token: token}, false
		}
	}
	return &router.Event{UserID: l.userID, Text: line}, false
}

func (l *Loop) read(ctx context.Context) (string, error) {
	l.startOnce.Do(func() {
		l.lines = make(chan lineResult)
		go l.pump()
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
		fmt.Fprint(l.out, "> ")
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-l.lines:
		if !ok {
			return "", io.EOF
		}
		return res.text, res.err
	}
}

// pump reads lines in the background so a blocked read never holds up cancellation.
func (l *Loop) pump() {
	defer close(l.lines)
	for {
		text, err := l.reader.ReadString('\n')
		if text != "" {
			l.lines <- lineResult{text: text}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				l.lines <- lineResult{err: err}
			}
			return
		}
	}
}
