package arbor

import (
	"log/slog"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/router"
	"github.com/aretw0/arbor/pkg/session"
)

// Version is the release version, set at build time with -ldflags "-X github.com/aretw0/arbor.Version=...".
var Version = "dev"

// DefaultRouteID is the leading route id of every dialog token.
const DefaultRouteID = runtime.DefaultRouteID

type settings struct {
	logger        *slog.Logger
	hooks         domain.LifecycleHooks
	resolver      ports.TextResolver
	locker        ports.DistributedLocker
	routeID       int
	defaultScreen int
	observer      router.EventObserver
}

// Option configures New.
type Option func(*settings)

// WithLogger sets a structured logger for the engine, router and session manager.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) {
		s.hooks = hooks
	}
}

// WithTextResolver resolves item, option and button texts at render time.
func WithTextResolver(r ports.TextResolver) Option {
	return func(s *settings) {
		s.resolver = r
	}
}

// WithLocker serializes each user's events across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(s *settings) {
		s.locker = l
	}
}

// WithRouteID changes the route id reserved for dialogs (default 8).
func WithRouteID(id int) Option {
	return func(s *settings) {
		s.routeID = id
	}
}

// WithDefaultScreen sets the screen used for malformed tokens and first contact (default 0).
func WithDefaultScreen(id int) Option {
	return func(s *settings) {
		s.defaultScreen = id
	}
}

// WithEventObserver is told about every handled event.
func WithEventObserver(fn router.EventObserver) Option {
	return func(s *settings) {
		s.observer = fn
	}
}

// New wires a dialog engine and a router over the given ports.
// callbacks are keyed by dialog id, screens by screen id; both are copied.
func New(store ports.SessionStore, messenger ports.Messenger, callbacks map[int]ports.Callback, screens map[int]router.ScreenHandler, opts ...Option) *router.Router {
	s := settings{routeID: runtime.DefaultRouteID}
	for _, opt := range opts {
		opt(&s)
	}

	sessionOpts := []session.Option{}
	engineOpts := []runtime.Option{
		runtime.WithLifecycleHooks(s.hooks),
		runtime.WithRouteID(s.routeID),
		runtime.WithDefaultScreen(s.defaultScreen),
	}
	routerOpts := []router.Option{router.WithDefaultScreen(s.defaultScreen)}

	if s.logger != nil {
		sessionOpts = append(sessionOpts, session.WithLogger(s.logger))
		engineOpts = append(engineOpts, runtime.WithLogger(s.logger))
		routerOpts = append(routerOpts, router.WithLogger(s.logger))
	}
	if s.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(s.locker))
	}
	if s.resolver != nil {
		engineOpts = append(engineOpts, runtime.WithTextResolver(s.resolver))
	}
	if s.observer != nil {
		routerOpts = append(routerOpts, router.WithEventObserver(s.observer))
	}

	sessions := session.NewManager(store, sessionOpts...)
	engine := runtime.NewEngine(sessions, messenger, callbacks, engineOpts...)
	return router.New(sessions, engine, screens, routerOpts...)
}
