package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/component-playground/internal/binding"
	"github.com/sakif/component-playground/internal/config"
	"github.com/sakif/component-playground/internal/engine"
	"github.com/sakif/component-playground/internal/engine/jsengine"
	"github.com/sakif/component-playground/internal/engine/sandbox"
	"github.com/sakif/component-playground/internal/executor/docker"
	"github.com/sakif/component-playground/internal/sample"
	"github.com/sakif/component-playground/internal/service"
	"github.com/sakif/component-playground/internal/ui"
)

// Core is everything needed to render previews, without HTTP or storage.
// The server builds one at startup; the CLI's render and watch commands build
// one of their own.
type Core struct {
	Engine   engine.Engine
	Registry *binding.Registry // the UI vocabulary, without "track"
	Samples  *sample.Catalog
	Renderer *service.RenderService

	closeEngine func() error
}

// NewCore assembles the engine backend, the binding registry and the sample
// catalog described by cfg.
//
// BACKEND SELECTION:
//   - goja:    previews run inside this process (fast, always available)
//   - sandbox: previews run in a pooled Docker container (isolated, needs a
//     reachable Docker daemon). A missing daemon is a startup error rather
//     than a silent fallback, so a deployment never runs untrusted code
//     in-process by accident.
func NewCore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Core, error) {
	samples, err := LoadSamples(cfg.Server.SamplesFile)
	if err != nil {
		return nil, err
	}

	reg, err := binding.New(ui.Bindings()...)
	if err != nil {
		return nil, fmt.Errorf("building registry: %w", err)
	}

	eng, closeEngine, err := newEngine(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	renderer, err := service.NewRenderService(eng, reg, cfg.Engine.EntryPoint, logger)
	if err != nil {
		closeEngine()
		return nil, err
	}

	return &Core{
		Engine:      eng,
		Registry:    reg,
		Samples:     samples,
		Renderer:    renderer,
		closeEngine: closeEngine,
	}, nil
}

// Close releases the engine backend (the container pool for sandbox).
func (c *Core) Close() error {
	if c.closeEngine == nil {
		return nil
	}
	return c.closeEngine()
}

// LoadSamples returns the catalog at path, or the built-in one when path is empty.
func LoadSamples(path string) (*sample.Catalog, error) {
	if path == "" {
		return sample.Builtin()
	}
	return sample.Load(path)
}

func newEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (engine.Engine, func() error, error) {
	switch cfg.Engine.Backend {
	case config.BackendSandbox:
		exec, err := docker.New(ctx, cfg.Sandbox.Docker(), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("starting sandbox executor: %w", err)
		}
		opts := []sandbox.Option{sandbox.WithLogger(logger)}
		if cfg.Engine.Timeout > 0 {
			opts = append(opts, sandbox.WithTimeout(cfg.Engine.Timeout))
		}
		logger.Info("engine ready", slog.String("backend", config.BackendSandbox), slog.String("image", cfg.Sandbox.Image))
		return sandbox.New(exec, opts...), exec.Close, nil

	default:
		opts := []jsengine.Option{jsengine.WithLogger(logger)}
		if cfg.Engine.Timeout > 0 {
			opts = append(opts, jsengine.WithTimeout(cfg.Engine.Timeout))
		}
		logger.Info("engine ready", slog.String("backend", config.BackendGoja))
		return jsengine.New(opts...), func() error { return nil }, nil
	}
}
