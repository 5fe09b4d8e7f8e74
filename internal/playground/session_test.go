package playground

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/component-playground/internal/apperror"
	"github.com/sakif/component-playground/internal/binding"
	"github.com/sakif/component-playground/internal/engine"
	"github.com/sakif/component-playground/internal/engine/jsengine"
	"github.com/sakif/component-playground/internal/preview"
	"github.com/sakif/component-playground/internal/sample"
	"github.com/sakif/component-playground/internal/ui"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Send(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func newSession(t *testing.T) (*Session, *recorder) {
	t.Helper()
	reg, err := ui.NewRegistry(nil)
	require.NoError(t, err)
	samples, err := sample.Builtin()
	require.NoError(t, err)

	rec := &recorder{}
	s, err := NewSession(context.Background(), Options{
		Engine:   jsengine.New(),
		Registry: reg,
		Samples:  samples,
	}, rec)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, rec
}

func TestSession_EditRendersOutput(t *testing.T) {
	s, rec := newSession(t)

	require.NoError(t, s.Handle(Message{
		Type:          MessageEdit,
		ComponentType: "badge",
		Source:        "export default function ComponentDemo() { track('seen'); return Badge('new'); }",
	}))
	s.Sync()

	events := rec.Events()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, EventRender, ev.Type)
	assert.Equal(t, preview.StateRendered, ev.State)
	assert.Equal(t, preview.KindOutput, ev.Result.Kind)
	assert.Contains(t, ev.HTML, `<span class="pg-badge" data-component="badge">new</span>`)
}

func TestSession_FailedEditIsReportedOnceAfterRender(t *testing.T) {
	s, rec := newSession(t)
	bad := "export default function ComponentDemo() { return Undefined(); }"

	s.Edit("button", bad)
	s.Edit("button", bad) // same input: memoized result, no second report
	s.Sync()

	events := rec.Events()
	require.Len(t, events, 3)
	assert.Equal(t, EventRender, events[0].Type)
	assert.Equal(t, preview.StateFailed, events[0].State)
	assert.Contains(t, events[0].HTML, "ReferenceError")
	assert.Equal(t, EventRender, events[1].Type)
	assert.Same(t, events[0].Result, events[1].Result)

	assert.Equal(t, EventReport, events[2].Type)
	require.NotNil(t, events[2].Error)
	assert.Equal(t, engine.KindReference, events[2].Error.Kind)

	// The session keeps working after an error.
	s.Edit("", "export const ComponentDemo = () => Text('fixed');")
	s.Sync()
	events = rec.Events()
	require.Len(t, events, 4)
	assert.Equal(t, preview.StateRendered, events[3].State)
}

func TestSession_ResetLoadsSample(t *testing.T) {
	s, rec := newSession(t)

	require.NoError(t, s.Handle(Message{Type: MessageReset, ComponentType: "card"}))
	s.Sync()

	typ, src := s.Snapshot()
	assert.Equal(t, "card", typ)
	assert.Contains(t, src, "Monthly report")

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, preview.StateRendered, events[0].State)
	assert.Contains(t, events[0].HTML, "Monthly report")
}

func TestSession_UnknownMessage(t *testing.T) {
	s, _ := newSession(t)
	err := s.Handle(Message{Type: "compile"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestNewSession_RegistryAlreadyHasTracker(t *testing.T) {
	reg, err := ui.NewRegistry(ui.TrackerFunc(func(string, map[string]any) {}))
	require.NoError(t, err)

	_, err = NewSession(context.Background(), Options{Engine: jsengine.New(), Registry: reg}, &recorder{})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestNewSession_CustomEntryPoint(t *testing.T) {
	rec := &recorder{}
	s, err := NewSession(context.Background(), Options{
		Engine:     jsengine.New(),
		Registry:   binding.MustNew(binding.Binding{Name: "A", Value: 1}),
		EntryPoint: "Demo",
	}, rec)
	require.NoError(t, err)
	defer s.Close()

	s.Edit("math", "const Demo = A + 1;")
	s.Sync()

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, int64(2), events[0].Result.Value)
}
