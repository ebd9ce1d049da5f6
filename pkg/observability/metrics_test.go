package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialogEvent(typ domain.EventType, dialogID int) *domain.DialogEvent {
	return domain.NewDialogEvent(typ, 1, domain.Position{DialogID: dialogID})
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	ctx := context.Background()
	h := m.Hooks()
	h.OnDialogStart(ctx, dialogEvent(domain.EventDialogStart, 1))
	h.OnDialogStart(ctx, dialogEvent(domain.EventDialogStart, 2))
	h.OnRetry(ctx, dialogEvent(domain.EventRetry, 1))
	h.OnBack(ctx, dialogEvent(domain.EventBack, 1))
	h.OnDialogFinish(ctx, dialogEvent(domain.EventDialogFinish, 1))
	h.OnCallbackError(ctx, dialogEvent(domain.EventCallbackFail, 2))
	enter := dialogEvent(domain.EventItemEnter, 1)
	enter.ItemType = domain.ItemSelect
	h.OnItemEnter(ctx, enter)
	h.OnRouteFallback(ctx, &domain.RouteEvent{Token: "garbage"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.dialogStarts.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dialogStarts.WithLabelValues("2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retries.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backs.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dialogFinishes.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callbackErrors.WithLabelValues("2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.itemEnters.WithLabelValues("1", string(domain.ItemSelect))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.routeFallbacks))
}

func TestMetrics_ObserveEvent(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	ctx := context.Background()
	m.ObserveEvent(ctx, router.Event{UserID: 1, Token: "0"}, time.Millisecond, nil)
	m.ObserveEvent(ctx, router.Event{UserID: 1, Text: "hi"}, time.Millisecond, errors.New("boom"))
	m.ObserveEvent(ctx, router.Event{UserID: 1}, time.Millisecond, nil)

	assert.Equal(t, 3, testutil.CollectAndCount(m.events))
}

func TestMetrics_DoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnBack: func(context.Context, *domain.DialogEvent) { calls = append(calls, "a") },
	}
	b := domain.LifecycleHooks{
		OnBack:          func(context.Context, *domain.DialogEvent) { calls = append(calls, "b") },
		OnRouteFallback: func(context.Context, *domain.RouteEvent) { calls = append(calls, "route") },
	}

	h := Chain(a, domain.LifecycleHooks{}, b)
	h.OnBack(context.Background(), dialogEvent(domain.EventBack, 1))
	h.OnRouteFallback(context.Background(), &domain.RouteEvent{})
	assert.Equal(t, []string{"a", "b", "route"}, calls)
	assert.Nil(t, h.OnRetry)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := LogHooks(logger)

	ev := dialogEvent(domain.EventCallbackFail, 4)
	ev.Err = errors.New("db down")
	h.OnCallbackError(context.Background(), ev)
	h.OnRouteFallback(context.Background(), &domain.RouteEvent{Token: "zz"})

	out := buf.String()
	assert.Contains(t, out, "callback_error")
	assert.Contains(t, out, "dialog_id=4")
	assert.Contains(t, out, "db down")
	assert.Contains(t, out, "token=zz")
}
