package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/router"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// maxBodySize bounds inbound event payloads; free text is limited further by the router.
const maxBodySize = 64 << 10

// EventHandler is the inbound side of the engine.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev router.Event) error
}

// Outbox hands out the messages delivered to a user since the last call.
type Outbox interface {
	Drain(userID int64) []memory.Delivery
}

// Delivery is the JSON shape of one displayed or edited message.
type Delivery struct {
	Handle  string         `json:"handle"`
	Edited  bool           `json:"edited"`
	Message domain.Message `json:"message"`
}

// EventResponse is returned by POST /v1/events.
type EventResponse struct {
	UserID     int64      `json:"user_id"`
	Deliveries []Delivery `json:"deliveries"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Server exposes the router over a webhook-style HTTP API.
type Server struct {
	events  EventHandler
	outbox  Outbox
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts h (typically promhttp.HandlerFor) on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(events EventHandler, outbox Outbox, opts ...Option) http.Handler {
	s := &Server{
		events: events,
		outbox: outbox,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/events", s.postEvent)
		r.Get("/users/{userID}/messages", s.getMessages)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// postEvent handles POST /v1/events and answers with everything the event produced.
func (s *Server) postEvent(w http.ResponseWriter, r *http.Request) {
	var ev router.Event
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if ev.UserID == 0 {
		s.fail(w, r, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	if err := s.events.HandleEvent(r.Context(), ev); err != nil {
		status := http.StatusInternalServerError
		var rejected *router.InputError
		if errors.As(err, &rejected) {
			status = http.StatusUnprocessableEntity
		}
		s.fail(w, r, status, "event rejected", err)
		return
	}

	writeJSON(w, http.StatusOK, EventResponse{
		UserID:     ev.UserID,
		Deliveries: convert(s.outbox.Drain(ev.UserID)),
	})
}

// getMessages handles GET /v1/users/{userID}/messages for polling channels.
func (s *Server) getMessages(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID == 0 {
		s.fail(w, r, http.StatusBadRequest, "invalid user id", err)
		return
	}
	writeJSON(w, http.StatusOK, EventResponse{
		UserID:     userID,
		Deliveries: convert(s.outbox.Drain(userID)),
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	id := w.Header().Get(RequestIDHeader)
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, "request_id", id, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Warn(msg, "request_id", id, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: msg, RequestID: id})
}

func convert(in []memory.Delivery) []Delivery {
	out := make([]Delivery, 0, len(in))
	for _, d := range in {
		out = append(out, Delivery{
			Handle:  string(d.Handle),
			Edited:  d.Edits > 0,
			Message: d.Message,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestID echoes the caller's request id or mints one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
