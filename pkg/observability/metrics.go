package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/router"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "arbor"

// Metrics holds the engine collectors.
type Metrics struct {
	dialogStarts   *prometheus.CounterVec
	dialogFinishes *prometheus.CounterVec
	itemEnters     *prometheus.CounterVec
	retries        *prometheus.CounterVec
	backs          *prometheus.CounterVec
	callbackErrors *prometheus.CounterVec
	routeFallbacks prometheus.Counter
	events         *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	byDialog := []string{"dialog_id"}
	m := &Metrics{
		dialogStarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialog_starts_total",
			Help:      "Dialogs started.",
		}, byDialog),
		dialogFinishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialog_completions_total",
			Help:      "Dialogs that reached their final item.",
		}, byDialog),
		itemEnters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Items rendered, by dialog and item type.",
		}, []string{"dialog_id", "item_type"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Items re-asked after a callback rejected the answer.",
		}, byDialog),
		backs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "back_navigations_total",
			Help:      "Back buttons pressed inside dialogs.",
		}, byDialog),
		callbackErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callback_errors_total",
			Help:      "Callbacks that returned an error.",
		}, byDialog),
		routeFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_fallbacks_total",
			Help:      "Tokens that could not be parsed and fell back to the default screen.",
		}),
		events: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_duration_seconds",
			Help:      "Time to handle one inbound event, lock wait included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "outcome"}),
	}

	for _, c := range []prometheus.Collector{
		m.dialogStarts, m.dialogFinishes, m.itemEnters, m.retries,
		m.backs, m.callbackErrors, m.routeFallbacks, m.events,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that feed the counters.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	count := func(vec *prometheus.CounterVec) func(context.Context, *domain.DialogEvent) {
		return func(_ context.Context, e *domain.DialogEvent) {
			vec.WithLabelValues(strconv.Itoa(e.DialogID)).Inc()
		}
	}
	return domain.LifecycleHooks{
		OnDialogStart:   count(m.dialogStarts),
		OnDialogFinish:  count(m.dialogFinishes),
		OnRetry:         count(m.retries),
		OnBack:          count(m.backs),
		OnCallbackError: count(m.callbackErrors),
		OnItemEnter: func(_ context.Context, e *domain.DialogEvent) {
			m.itemEnters.WithLabelValues(strconv.Itoa(e.DialogID), string(e.ItemType)).Inc()
		},
		OnRouteFallback: func(context.Context, *domain.RouteEvent) {
			m.routeFallbacks.Inc()
		},
	}
}

// ObserveEvent records the latency of one router event. It fits router.WithEventObserver.
func (m *Metrics) ObserveEvent(_ context.Context, ev router.Event, elapsed time.Duration, err error) {
	kind := "resume"
	switch {
	case ev.Token != "":
		kind = "token"
	case ev.Text != "":
		kind = "text"
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.events.WithLabelValues(kind, outcome).Observe(elapsed.Seconds())
}
