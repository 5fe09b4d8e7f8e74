// Package sandbox evaluates previews in a Node.js process behind an
// executor.Executor, usually a Docker container.
//
// HOW ONE RUN WORKS
// Go cannot hand functions to another process, so every registry value has to
// describe itself as script text (engine.Declarer) or be plain JSON data. The
// engine then generates one program that:
//
//  1. runs the helper preludes,
//  2. declares the parameter names and values,
//  3. builds the wrapper with new Function(...names, body),
//  4. calls it to get the entry point and calls that,
//  5. prints one JSON outcome line naming the phase it reached.
//
// Compile performs the whole run up front. The outcome is split back into a
// Compile error (compile and construct phases) or an EntryPoint that replays
// the invoke result, so callers see the same contract as the embedded engine.
package sandbox

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/component-playground/internal/binding"
	"github.com/sakif/component-playground/internal/engine"
	"github.com/sakif/component-playground/internal/executor"
	"github.com/sakif/component-playground/internal/ui"
)

// outcomePrefix starts every outcome marker. Each run appends a random
// suffix, so console output from user code cannot be mistaken for the
// outcome line without knowing the marker of that run.
const outcomePrefix = "\x1e__playground_outcome_"

// newMarker returns the outcome marker for one run.
func newMarker() string {
	return outcomePrefix + rand.Text() + "__"
}

// Engine compiles previews by running them through an executor.
type Engine struct {
	exec    executor.Executor
	timeout time.Duration
	decode  func([]byte) (any, error)
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds a whole run, including waiting for a free container.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTreeDecoder replaces the function that turns the JSON tree printed by
// the program into a Go value. The default yields *ui.Node trees.
func WithTreeDecoder(fn func([]byte) (any, error)) Option {
	return func(e *Engine) { e.decode = fn }
}

// New creates an Engine on top of exec.
func New(exec executor.Executor, opts ...Option) *Engine {
	e := &Engine{
		exec:    exec,
		timeout: 10 * time.Second,
		decode:  ui.DecodeTree,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ engine.Engine = (*Engine)(nil)

// Compile implements engine.Engine.
func (e *Engine) Compile(body string, reg *binding.Registry, entryPoint string) (engine.EntryPoint, error) {
	if err := engine.CheckEntryPoint(entryPoint); err != nil {
		return nil, err
	}

	marker := newMarker()
	script, err := Program(body, reg, entryPoint, marker)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	res, err := e.exec.Execute(ctx, executor.ExecutionRequest{Script: script})
	if err != nil {
		return nil, fmt.Errorf("sandbox: executing preview: %w", err)
	}
	e.logger.Debug("sandbox run finished",
		slog.Int("exitCode", res.ExitCode),
		slog.Duration("took", res.Duration),
	)

	if res.TimedOut() {
		return nil, &engine.ScriptError{
			Kind:    engine.KindRuntime,
			Phase:   engine.PhaseConstruct,
			Name:    "TimeoutError",
			Message: "preview did not finish in time",
			Stack:   strings.TrimSpace(res.Stderr),
		}
	}

	out, err := parseOutcome(res, marker)
	if err != nil {
		return nil, err
	}

	switch out.Phase {
	case "compile":
		return nil, out.Error.scriptError(engine.PhaseCompile)
	case "construct":
		return nil, out.Error.scriptError(engine.PhaseConstruct)
	case "invoke":
		return &entryPointResult{err: out.Error.scriptError(engine.PhaseInvoke)}, nil
	case "output":
		tree, err := e.decode(out.Tree)
		if err != nil {
			return nil, fmt.Errorf("sandbox: %w", err)
		}
		return &entryPointResult{tree: tree}, nil
	default:
		return nil, fmt.Errorf("sandbox: unexpected outcome phase %q", out.Phase)
	}
}

// entryPointResult replays the invoke phase of a finished run.
type entryPointResult struct {
	tree any
	err  error
}

func (p *entryPointResult) Invoke() (any, error) {
	return p.tree, p.err
}

type outcome struct {
	Phase string          `json:"phase"`
	Tree  json.RawMessage `json:"tree,omitempty"`
	Error *outcomeError   `json:"error,omitempty"`
}

type outcomeError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

func (oe *outcomeError) scriptError(phase engine.Phase) *engine.ScriptError {
	if oe == nil {
		oe = &outcomeError{Name: "Error", Message: "unknown failure"}
	}
	return &engine.ScriptError{
		Kind:    engine.KindOf(oe.Name),
		Phase:   phase,
		Name:    oe.Name,
		Message: oe.Message,
		Stack:   oe.Stack,
	}
}

// parseOutcome reads the outcome line tagged with marker. The program exits
// right after writing it, so it is the last such line on stdout.
func parseOutcome(res *executor.ExecutionResult, marker string) (*outcome, error) {
	i := strings.LastIndex(res.Stdout, marker)
	if i < 0 {
		// The runtime died before reporting, e.g. out of memory.
		msg := lastLine(res.Stderr)
		if msg == "" {
			msg = fmt.Sprintf("sandbox exited with code %d", res.ExitCode)
		}
		return nil, &engine.ScriptError{
			Kind:    engine.KindRuntime,
			Phase:   engine.PhaseConstruct,
			Name:    "SandboxError",
			Message: msg,
			Stack:   strings.TrimSpace(res.Stderr),
		}
	}

	line := res.Stdout[i+len(marker):]
	var out outcome
	dec := json.NewDecoder(bytes.NewReader([]byte(line)))
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("sandbox: decoding outcome: %w", err)
	}
	return &out, nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
