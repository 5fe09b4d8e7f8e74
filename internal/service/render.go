package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/component-playground/internal/apperror"
	"github.com/sakif/component-playground/internal/binding"
	"github.com/sakif/component-playground/internal/engine"
	"github.com/sakif/component-playground/internal/preview"
	"github.com/sakif/component-playground/internal/ui"
)

// MaxSourceLength bounds every piece of preview source the server accepts,
// whether it arrives in a render request, a snippet or a live session.
const MaxSourceLength = 100000

// Rendered is a finished one-shot render: the structured result and the
// artifact HTML a page can embed.
type Rendered struct {
	Result *preview.Result `json:"result"`
	HTML   string          `json:"html"`
}

// RenderService renders source text that is not tied to a live session:
// POST /api/render, the /preview page, snippet previews and the CLI.
//
// WHY A NEW CYCLE PER CALL?
// A Cycle remembers its last input so that one editor re-rendering the same
// text gets the same result back. Unrelated requests share nothing, so each
// one gets a cycle of its own and concurrent renders never queue behind a
// single mutex.
type RenderService struct {
	engine     engine.Engine
	registry   *binding.Registry
	entryPoint string
	logger     *slog.Logger
	scheduler  preview.Scheduler
}

// NewRenderService creates a RenderService. base must not contain "track";
// analytics events raised by one-shot renders go to the logger.
func NewRenderService(eng engine.Engine, base *binding.Registry, entryPoint string, logger *slog.Logger) (*RenderService, error) {
	reg, err := base.With(ui.Track(ui.SlogTracker{Logger: logger}))
	if err != nil {
		return nil, fmt.Errorf("building render registry: %w", err)
	}
	if entryPoint == "" {
		entryPoint = preview.DefaultEntryPoint
	}
	return &RenderService{
		engine:     eng,
		registry:   reg,
		entryPoint: entryPoint,
		logger:     logger,
		scheduler:  preview.GoScheduler{},
	}, nil
}

// Registry returns the bindings previews are evaluated against.
func (s *RenderService) Registry() *binding.Registry {
	return s.registry
}

// EntryPoint returns the identifier previews must define.
func (s *RenderService) EntryPoint() string {
	return s.entryPoint
}

// Render evaluates src and renders its artifact. Failed evaluations are not
// errors: they come back as an error Result with an error panel as HTML. The
// returned error is reserved for bad input and artifact rendering failures.
func (s *RenderService) Render(ctx context.Context, componentType, src string) (*Rendered, error) {
	if len(src) > MaxSourceLength {
		return nil, apperror.ValidationFailed("source",
			fmt.Sprintf("source must be %d characters or less", MaxSourceLength))
	}

	cycle := preview.NewCycle(s.engine, s.registry,
		preview.WithEntryPoint(s.entryPoint),
		preview.WithLogger(s.logger),
	)
	result := cycle.Render(componentType, src)

	artifact := preview.NewIsolator(s.scheduler).Isolate(result, s.report(componentType))
	html, err := artifact.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("rendering artifact: %w", err)
	}
	return &Rendered{Result: result, HTML: html}, nil
}

func (s *RenderService) report(componentType string) func(preview.ErrorDescriptor) {
	return func(d preview.ErrorDescriptor) {
		s.logger.Info("preview error reported",
			slog.String("componentType", componentType),
			slog.String("kind", string(d.Kind)),
			slog.String("name", d.Name),
		)
	}
}
