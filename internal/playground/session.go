// Package playground runs live preview sessions: one per open editor.
//
// A session owns the editor's current source text and renders it every time
// it changes. All of a session's work happens on its own preview.Loop, so
// edits are processed one at a time in arrival order, and each failed render
// is followed (never interrupted) by its error report.
package playground

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rs/xid"

	"github.com/sakif/component-playground/internal/apperror"
	"github.com/sakif/component-playground/internal/binding"
	"github.com/sakif/component-playground/internal/engine"
	"github.com/sakif/component-playground/internal/preview"
	"github.com/sakif/component-playground/internal/sample"
	"github.com/sakif/component-playground/internal/ui"
)

// Message types sent by the client.
const (
	MessageEdit  = "edit"
	MessageReset = "reset"
)

// Event types sent to the client.
const (
	EventRender = "render"
	EventReport = "report"
)

// Message is one client request.
type Message struct {
	Type          string `json:"type"`
	Source        string `json:"source,omitempty"`
	ComponentType string `json:"componentType,omitempty"`
}

// Event is one server notification. Render events carry State, Result and
// HTML; report events carry Error.
type Event struct {
	Type   string                   `json:"type"`
	State  preview.State            `json:"state,omitempty"`
	Result *preview.Result          `json:"result,omitempty"`
	HTML   string                   `json:"html,omitempty"`
	Error  *preview.ErrorDescriptor `json:"error,omitempty"`
}

// Sender delivers events to the client. Sessions call it from a single
// goroutine, so implementations need no locking of their own.
type Sender interface {
	Send(ctx context.Context, ev Event) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, ev Event) error

func (f SenderFunc) Send(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Options holds what every session shares.
type Options struct {
	Engine     engine.Engine
	Registry   *binding.Registry // must not contain "track"; the session adds it
	EntryPoint string
	Samples    *sample.Catalog
	Logger     *slog.Logger
}

// Session is one live preview.
type Session struct {
	id       string
	ctx      context.Context
	sender   Sender
	samples  *sample.Catalog
	logger   *slog.Logger
	loop     *preview.Loop
	cycle    *preview.Cycle
	isolator *preview.Isolator

	// Owned by the loop goroutine.
	componentType string
	source        string
}

// NewSession creates a session bound to ctx; events go to sender.
func NewSession(ctx context.Context, opts Options, sender Sender) (*Session, error) {
	id := xid.New().String()
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With(slog.String("session", id))

	// Analytics events raised by preview code are attributed to the session.
	reg, err := opts.Registry.With(ui.Track(ui.SlogTracker{Logger: logger}))
	if err != nil {
		return nil, fmt.Errorf("building session registry: %w", err)
	}

	cycleOpts := []preview.CycleOption{preview.WithLogger(logger)}
	if opts.EntryPoint != "" {
		cycleOpts = append(cycleOpts, preview.WithEntryPoint(opts.EntryPoint))
	}

	loop := preview.NewLoop(logger)
	s := &Session{
		id:       id,
		ctx:      ctx,
		sender:   sender,
		samples:  opts.Samples,
		logger:   logger,
		loop:     loop,
		cycle:    preview.NewCycle(opts.Engine, reg, cycleOpts...),
		isolator: preview.NewIsolator(loop),
	}
	logger.Info("preview session opened")
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Handle queues msg for processing and returns immediately.
func (s *Session) Handle(msg Message) error {
	switch msg.Type {
	case MessageEdit:
		s.Edit(msg.ComponentType, msg.Source)
	case MessageReset:
		s.Reset(msg.ComponentType)
	default:
		return apperror.ValidationFailed("type", fmt.Sprintf("unknown message type %q", msg.Type))
	}
	return nil
}

// Edit replaces the source text and renders it. An empty componentType keeps
// the current one.
func (s *Session) Edit(componentType, src string) {
	s.loop.Post(func() {
		if componentType != "" {
			s.componentType = componentType
		}
		s.source = src
		s.render()
	})
}

// Reset switches to componentType (or stays on the current one when empty),
// restores its sample source and renders it from scratch.
func (s *Session) Reset(componentType string) {
	s.loop.Post(func() {
		if componentType != "" {
			s.componentType = componentType
		}
		s.source = ""
		if s.samples != nil {
			s.source = s.samples.Source(s.componentType)
		}
		s.cycle.Reset()
		s.render()
	})
}

// Snapshot returns the current component type and source.
func (s *Session) Snapshot() (componentType, src string) {
	s.loop.Do(func() {
		componentType, src = s.componentType, s.source
	})
	return componentType, src
}

// Sync waits until every queued edit has been rendered and the error
// reports those renders scheduled have been sent.
func (s *Session) Sync() {
	done := make(chan struct{})
	posted := s.loop.Post(func() {
		s.loop.Post(func() { close(done) })
	})
	if !posted {
		return
	}
	select {
	case <-done:
	case <-s.ctx.Done():
	}
}

// Close stops the session. Queued edits are dropped.
func (s *Session) Close() {
	s.loop.Stop()
	s.logger.Info("preview session closed")
}

// render runs on the loop.
func (s *Session) render() {
	result := s.cycle.Render(s.componentType, s.source)
	artifact := s.isolator.Isolate(result, s.report)

	html, err := artifact.HTML(s.ctx)
	if err != nil {
		s.logger.Error("rendering artifact", slog.String("error", err.Error()))
	}

	s.send(Event{
		Type:   EventRender,
		State:  s.cycle.State(),
		Result: result,
		HTML:   html,
	})
}

// report is the isolator's deferred error callback.
func (s *Session) report(d preview.ErrorDescriptor) {
	s.logger.Info("preview error reported",
		slog.String("kind", string(d.Kind)),
		slog.String("name", d.Name),
	)
	s.send(Event{Type: EventReport, Error: &d})
}

func (s *Session) send(ev Event) {
	if err := s.sender.Send(s.ctx, ev); err != nil {
		s.logger.Warn("sending event", slog.String("type", ev.Type), slog.String("error", err.Error()))
	}
}
