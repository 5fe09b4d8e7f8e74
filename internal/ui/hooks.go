package ui

import (
	"log/slog"

	"github.com/sakif/component-playground/internal/binding"
)

// hook is a minimal state/effect primitive.
//
// Previews are static snapshots: a render happens once per edit and nothing
// re-renders it, so state setters are accepted and ignored and effects never
// run. The hooks exist so sample code written against the real component
// library evaluates unchanged.
type hook struct {
	name   string
	native any
	decl   string
}

func (h hook) Native() any     { return h.native }
func (h hook) Declare() string { return h.decl }

func (h hook) Binding() binding.Binding {
	return binding.Binding{Name: h.name, Value: h}
}

// Hooks lists the hook bindings in registry order.
var Hooks = []hook{
	{
		name:   "useState",
		native: func(initial any) []any { return []any{initial, func(any) {}} },
		decl:   "(initial) => [initial, () => {}]",
	},
	{
		name:   "useEffect",
		native: func(effect any, deps ...any) {},
		decl:   "() => undefined",
	},
	{
		name: "useMemo",
		native: func(compute func() any, deps ...any) any {
			if compute == nil {
				return nil
			}
			return compute()
		},
		decl: "(compute) => compute()",
	},
	{
		name:   "useRef",
		native: func(initial any) map[string]any { return map[string]any{"current": initial} },
		decl:   "(initial) => ({ current: initial })",
	},
}

// Tracker receives analytics events raised by preview code through track().
// It replaces the page-global analytics object: the host decides what, if
// anything, happens to the events.
type Tracker interface {
	Track(event string, props map[string]any)
}

// TrackerFunc adapts a function to the Tracker interface.
type TrackerFunc func(event string, props map[string]any)

func (f TrackerFunc) Track(event string, props map[string]any) { f(event, props) }

// SlogTracker writes events to a structured logger.
type SlogTracker struct {
	Logger *slog.Logger
}

func (t SlogTracker) Track(event string, props map[string]any) {
	t.Logger.Info("preview analytics event",
		slog.String("event", event),
		slog.Any("props", props),
	)
}

type trackBinding struct {
	tracker Tracker
}

func (b trackBinding) Native() any {
	return func(event string, props map[string]any) {
		b.tracker.Track(event, props)
	}
}

// Sandboxed code cannot reach the host tracker; events are dropped there.
func (b trackBinding) Declare() string { return "(event, props) => undefined" }

// Track returns the "track" binding backed by t.
func Track(t Tracker) binding.Binding {
	return binding.Binding{Name: "track", Value: trackBinding{tracker: t}}
}
