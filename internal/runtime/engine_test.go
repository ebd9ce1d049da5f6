package runtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/route"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const user int64 = 42

// recorder is a callback that records every step and replies from a script.
type recorder struct {
	mu     sync.Mutex
	steps  []ports.Step
	script func(ports.Step) (domain.Result, error)
}

func (r *recorder) Handle(ctx context.Context, step ports.Step) (domain.Result, error) {
	r.mu.Lock()
	r.steps = append(r.steps, step)
	r.mu.Unlock()
	if r.script != nil {
		return r.script(step)
	}
	return domain.Continue(), nil
}

func (r *recorder) finished() int {
	n := 0
	for _, s := range r.steps {
		if s.Finished {
			n++
		}
	}
	return n
}

type fixture struct {
	engine    *runtime.Engine
	sessions  *session.Manager
	messenger *memory.Messenger
}

func newFixture(t *testing.T, callbacks map[int]ports.Callback, opts ...runtime.Option) *fixture {
	t.Helper()
	sessions := session.NewManager(memory.NewStore())
	messenger := memory.NewMessenger()

	// Every user enters dialogs from the main menu.
	require.NoError(t, sessions.Session(user).SaveTrace(context.Background(), route.NewStack("0")))

	return &fixture{
		engine:    runtime.NewEngine(sessions, messenger, callbacks, opts...),
		sessions:  sessions,
		messenger: messenger,
	}
}

func (f *fixture) top(t *testing.T) string {
	t.Helper()
	st, err := f.sessions.Session(user).Trace(context.Background())
	require.NoError(t, err)
	top, _ := st.Peek()
	return top
}

func (f *fixture) position(t *testing.T) domain.Position {
	t.Helper()
	pos, found, err := f.sessions.Session(user).Position(context.Background())
	require.NoError(t, err)
	require.True(t, found, "position is stored")
	return pos
}

func (f *fixture) last(t *testing.T) domain.Message {
	t.Helper()
	d, ok := f.messenger.Last(user)
	require.True(t, ok, "a message is displayed")
	return d.Message
}

// scenarioDialog is dialog 1:
// sequence 0 = [item 10 (SELECT, option 100 -> sequence 1), item 11 (TEXT_INPUT)]
// sequence 1 = [item 20 (SELECT, option 200)]
func scenarioDialog() *domain.Dialog {
	d := domain.NewDialog(1)
	d.Sequences[0] = domain.Sequence{ID: 0, ItemIDs: []int{10, 11}}
	d.Sequences[1] = domain.Sequence{ID: 1, ItemIDs: []int{20}}
	d.Items[10] = domain.Item{ID: 10, Text: "pick", Type: domain.ItemSelect, OptionIDs: []int{100, 101}}
	d.Items[11] = domain.Item{ID: 11, Text: "name?", Type: domain.ItemTextInput}
	d.Items[20] = domain.Item{ID: 20, Text: "details", Type: domain.ItemSelect, OptionIDs: []int{200}}
	d.Options[100] = domain.Option{ID: 100, Text: "go deeper", TargetSequenceID: domain.Ref(1), Row: 1}
	d.Options[101] = domain.Option{ID: 101, Text: "stay", Row: 0}
	d.Options[200] = domain.Option{ID: 200, Text: "done"}
	return d
}

func ddid(dialog, seq, item int) route.DDID {
	return route.DDID{RouteID: runtime.DefaultRouteID, DialogID: dialog, SequenceID: seq, ItemID: item}
}

func TestEngine_EndToEndScenario(t *testing.T) {
	ctx := context.Background()
	cb := &recorder{}
	f := newFixture(t, map[int]ports.Callback{1: cb})

	out, err := f.engine.Start(ctx, user, scenarioDialog())
	require.NoError(t, err)
	assert.Equal(t, runtime.OutcomeStay, out.Kind)
	assert.Equal(t, "8:1:0:10", f.top(t))

	// Options are grouped by row ascending, then the back row.
	msg := f.last(t)
	assert.Equal(t, "pick", msg.Text)
	require.Len(t, msg.Buttons, 3)
	assert.Equal(t, "8:1:0:10:101", msg.Buttons[0][0].Payload)
	assert.Equal(t, "8:1:0:10:100", msg.Buttons[1][0].Payload)
	assert.Equal(t, "8:-1:1:0:10", msg.Buttons[2][0].Payload)
	assert.Equal(t, runtime.DefaultBackLabel, msg.Buttons[2][0].Text)

	out, err = f.engine.Select(ctx, user, ddid(1, 0, 10).WithOption(100))
	require.NoError(t, err)
	assert.Equal(t, runtime.OutcomeStay, out.Kind)
	assert.Equal(t, "8:1:1:20", f.top(t))
	assert.Equal(t, "details", f.last(t).Text)

	require.Len(t, cb.steps, 1)
	assert.False(t, cb.steps[0].Finished)
	assert.Equal(t, 10, cb.steps[0].ItemID)
	require.NotNil(t, cb.steps[0].OptionID)
	assert.Equal(t, 100, *cb.steps[0].OptionID)

	out, err = f.engine.Back(ctx, user, ddid(1, 1, 20))
	require.NoError(t, err)
	assert.Equal(t, runtime.OutcomeStay, out.Kind)
	assert.Equal(t, "8:1:0:10", f.top(t))
	assert.Equal(t, "pick", f.last(t).Text)
	assert.Equal(t, "8:1:0:10:100", f.last(t).Buttons[1][0].Payload)

	st, err := f.sessions.Session(user).Trace(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "8:1:0:10"}, st.Tokens())
	assert.Equal(t, 1, f.messenger.Sent(), "every render edits the same message")
}

func TestEngine_AdvanceRule(t *testing.T) {
	ctx := context.Background()

	// sequence 0 = [A (select, no target), B (text)] -> sequence 1 = [C (text)]
	b := dsl.New(5)
	first := b.Sequence()
	second := b.Sequence()
	first.Select("A").Option("ok", 0).Input("B").Then(second.ID())
	second.Input("C")
	d, err := b.Build()
	require.NoError(t, err)

	cb := &recorder{}
	f := newFixture(t, map[int]ports.Callback{5: cb})
	_, err = f.engine.Start(ctx, user, d)
	require.NoError(t, err)

	_, err = f.engine.Select(ctx, user, ddid(5, 0, 0).WithOption(0))
	require.NoError(t, err)
	assert.Equal(t, domain.Position{DialogID: 5, SequenceID: 0, ItemIndex: 1}, f.position(t), "A advances to B first")

	out, err := f.engine.Text(ctx, user, "b-answer")
	require.NoError(t, err)
	assert.Equal(t, runtime.OutcomeStay, out.Kind)
	assert.Equal(t, domain.Position{DialogID: 5, SequenceID: 1, ItemIndex: 0}, f.position(t), "then the next sequence")

	out, err = f.engine.Text(ctx, user, "c-answer")
	require.NoError(t, err)
	assert.True(t, out.Exited())
	assert.Equal(t, "0", out.Token)

	assert.Equal(t, 1, cb.finished(), "finished exactly once")
	last := cb.steps[len(cb.steps)-1]
	assert.True(t, last.Finished)
	require.NotNil(t, cb.steps[1].Answer)
	assert.Equal(t, "b-answer", *cb.steps[1].Answer)

	_, active, err := f.engine.Active(ctx, user)
	require.NoError(t, err)
	assert.False(t, active, "dialog is cleared on completion")
	assert.Equal(t, "0", f.top(t), "trace collapses to the entry point")
}

func TestEngine_RetryCurrentDoesNotAdvance(t *testing.T) {
	ctx := context.Background()

	b := dsl.New(3)
	b.Sequence().Input("i0").Input("i1").Input("age?").Input("i3")
	d, err := b.Build()
	require.NoError(t, err)

	cb := &recorder{script: func(s ports.Step) (domain.Result, error) {
		if s.Answer != nil && *s.Answer == "bad" {
			return domain.RetryCurrent(0, 2), nil
		}
		return domain.Continue(), nil
	}}
	f := newFixture(t, map[int]ports.Callback{3: cb})
	_, err = f.engine.Start(ctx, user, d)
	require.NoError(t, err)

	for _, answer := range []string{"a", "b", "bad"} {
		_, err = f.engine.Text(ctx, user, answer)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, f.position(t).ItemIndex)
	assert.Equal(t, "age?", f.last(t).Text)

	// The next event targets item 2 again, not item 3.
	_, err = f.engine.Text(ctx, user, "bad")
	require.NoError(t, err)
	assert.Equal(t, 2, f.position(t).ItemIndex)
	assert.Equal(t, 2, cb.steps[len(cb.steps)-1].ItemID)

	_, err = f.engine.Text(ctx, user, "good")
	require.NoError(t, err)
	assert.Equal(t, 3, f.position(t).ItemIndex)
}

func TestEngine_SkipAndComplete(t *testing.T) {
	ctx := context.Background()

	b := dsl.New(4)
	b.Sequence().Select("known?").Option("yes", 0).Input("x").Input("y")
	d, err := b.Build()
	require.NoError(t, err)

	cb := &recorder{script: func(s ports.Step) (domain.Result, error) {
		return domain.SkipAndComplete(), nil
	}}
	f := newFixture(t, map[int]ports.Callback{4: cb})
	_, err = f.engine.Start(ctx, user, d)
	require.NoError(t, err)

	out, err := f.engine.Select(ctx, user, ddid(4, 0, 0).WithOption(0))
	require.NoError(t, err)
	assert.True(t, out.Exited())

	require.Len(t, cb.steps, 2, "remaining items never reach the callback")
	assert.Equal(t, 1, cb.finished())
	assert.True(t, cb.steps[1].Finished)
}

func TestEngine_BackFromFirstItemExits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[int]ports.Callback{1: &recorder{}})
	_, err := f.engine.Start(ctx, user, scenarioDialog())
	require.NoError(t, err)

	out, err := f.engine.Back(ctx, user, ddid(1, 0, 10))
	require.NoError(t, err)
	assert.True(t, out.Exited())
	assert.Equal(t, "0", out.Token)

	_, active, err := f.engine.Active(ctx, user)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestEngine_BackToStaticScreen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[int]ports.Callback{1: &recorder{}})
	require.NoError(t, f.sessions.Session(user).SaveTrace(ctx, route.NewStack("0", "3")))

	_, err := f.engine.Start(ctx, user, scenarioDialog())
	require.NoError(t, err)

	out, err := f.engine.Back(ctx, user, ddid(1, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, "3", out.Token, "the screen that opened the dialog")
	assert.Equal(t, "3", f.top(t))
}

func TestEngine_BackHookReportsLeftItem(t *testing.T) {
	ctx := context.Background()
	var left []*domain.DialogEvent
	hooks := domain.LifecycleHooks{
		OnBack: func(ctx context.Context, e *domain.DialogEvent) { left = append(left, e) },
	}
	f := newFixture(t, map[int]ports.Callback{1: &recorder{}}, runtime.WithLifecycleHooks(hooks))
	_, err := f.engine.Start(ctx, user, scenarioDialog())
	require.NoError(t, err)
	_, err = f.engine.Select(ctx, user, ddid(1, 0, 10).WithOption(101))
	require.NoError(t, err)
	require.Equal(t, "8:1:0:11", f.top(t))

	_, err = f.engine.Back(ctx, user, ddid(1, 0, 11))
	require.NoError(t, err)

	require.Len(t, left, 1)
	assert.Equal(t, 1, left[0].DialogID)
	assert.Equal(t, 0, left[0].SequenceID)
	assert.Equal(t, 1, left[0].ItemIndex, "item 11 sits at index 1 of sequence 0")
	assert.Equal(t, 0, f.position(t).ItemIndex)
}

func TestEngine_StaleBackRewinds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[int]ports.Callback{1: &recorder{}})
	_, err := f.engine.Start(ctx, user, scenarioDialog())
	require.NoError(t, err)
	_, err = f.engine.Select(ctx, user, ddid(1, 0, 10).WithOption(101))
	require.NoError(t, err)
	assert.Equal(t, "8:1:0:11", f.top(t))

	// Back pressed on item 10's (older) message.
	out, err := f.engine.Back(ctx, user, ddid(1, 0, 10))
	require.NoError(t, err)
	assert.True(t, out.Exited())
}

func TestEngine_Recovery(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing Dialog Falls Back To Entry Point", func(t *testing.T) {
		f := newFixture(t, map[int]ports.Callback{1: &recorder{}})
		out, err := f.engine.Select(ctx, user, ddid(1, 0, 10).WithOption(100))
		require.NoError(t, err)
		assert.True(t, out.Exited())
		assert.Equal(t, "0", out.Token)
	})

	t.Run("Unknown Item Resets To Start", func(t *testing.T) {
		f := newFixture(t, map[int]ports.Callback{1: &recorder{}})
		_, err := f.engine.Start(ctx, user, scenarioDialog())
		require.NoError(t, err)

		out, err := f.engine.Select(ctx, user, ddid(1, 7, 99).WithOption(1))
		require.NoError(t, err)
		assert.Equal(t, runtime.OutcomeStay, out.Kind)
		assert.Equal(t, domain.StartPosition(1), f.position(t))
	})

	t.Run("Foreign Option Is Ignored", func(t *testing.T) {
		cb := &recorder{}
		f := newFixture(t, map[int]ports.Callback{1: cb})
		_, err := f.engine.Start(ctx, user, scenarioDialog())
		require.NoError(t, err)

		_, err = f.engine.Select(ctx, user, ddid(1, 0, 10).WithOption(200))
		require.NoError(t, err)
		assert.Empty(t, cb.steps)
		assert.Equal(t, domain.StartPosition(1), f.position(t))
	})

	t.Run("Text Without Expectation", func(t *testing.T) {
		f := newFixture(t, nil)
		out, err := f.engine.Text(ctx, user, "hello")
		require.NoError(t, err)
		assert.Equal(t, runtime.OutcomeIgnored, out.Kind)
	})

	t.Run("Failed Edit Sends Fresh", func(t *testing.T) {
		f := newFixture(t, map[int]ports.Callback{1: &recorder{}})
		f.messenger.FailEdits = true
		_, err := f.engine.Start(ctx, user, scenarioDialog())
		require.NoError(t, err)
		_, err = f.engine.Select(ctx, user, ddid(1, 0, 10).WithOption(101))
		require.NoError(t, err)
		assert.Equal(t, 2, f.messenger.Sent())
		assert.Equal(t, "name?", f.last(t).Text)
	})
}

func TestEngine_CallbackError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	f := newFixture(t, map[int]ports.Callback{1: ports.CallbackFunc(func(ctx context.Context, s ports.Step) (domain.Result, error) {
		return domain.Result{}, boom
	})})
	_, err := f.engine.Start(ctx, user, scenarioDialog())
	require.NoError(t, err)

	_, err = f.engine.Select(ctx, user, ddid(1, 0, 10).WithOption(100))
	var cerr *domain.CallbackError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 1, cerr.DialogID)
	assert.ErrorIs(t, err, boom)
}

func TestEngine_StartRequiresCallback(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.engine.Start(context.Background(), user, scenarioDialog())
	assert.ErrorIs(t, err, domain.ErrNoCallback)
}

func TestEngine_TextInputRender(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[int]ports.Callback{1: &recorder{}})
	_, err := f.engine.Start(ctx, user, scenarioDialog())
	require.NoError(t, err)
	_, err = f.engine.Select(ctx, user, ddid(1, 0, 10).WithOption(101))
	require.NoError(t, err)

	msg := f.last(t)
	require.Len(t, msg.Buttons, 1, "only a back button")
	assert.Equal(t, "8:-1:1:0:11", msg.Buttons[0][0].Payload)

	pos, awaiting, err := f.sessions.Session(user).AwaitingText(ctx)
	require.NoError(t, err)
	assert.True(t, awaiting)
	assert.Equal(t, 1, pos.ItemIndex)

	out, err := f.engine.Resume(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, runtime.OutcomeStay, out.Kind)
	assert.Equal(t, "name?", f.last(t).Text)
}
