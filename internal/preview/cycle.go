package preview

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sakif/component-playground/internal/binding"
	"github.com/sakif/component-playground/internal/engine"
	"github.com/sakif/component-playground/internal/source"
)

// DefaultEntryPoint is the identifier previews are expected to define.
const DefaultEntryPoint = "ComponentDemo"

// State is where a Cycle is in its evaluation of the latest input.
type State int32

const (
	StateIdle State = iota
	StateEvaluating
	StateRendered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEvaluating:
		return "evaluating"
	case StateRendered:
		return "rendered"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// MarshalText lets State appear as its name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Cycle renders source snapshots, remembering the last one.
//
// === THE CYCLE ===
//  1. normalize the source (strip the export marker)
//  2. compile it against the registry
//  3. invoke the entry point with no arguments
//  4. any error or panic on the way becomes an error Result
//
// Rendering the same (componentType, source) twice in a row returns the very
// same *Result without touching the engine. That pointer identity is what
// lets the Isolator report each failure once, no matter how often a display
// surface asks for it.
type Cycle struct {
	engine     engine.Engine
	registry   *binding.Registry
	entryPoint string
	logger     *slog.Logger

	mu     sync.Mutex // one evaluation at a time
	key    cycleKey
	result *Result
	state  atomic.Int32
}

type cycleKey struct {
	componentType string
	source        string
}

// CycleOption configures a Cycle.
type CycleOption func(*Cycle)

// WithEntryPoint changes the identifier returned from the wrapper.
func WithEntryPoint(name string) CycleOption {
	return func(c *Cycle) { c.entryPoint = name }
}

// WithLogger sets the logger used for failed evaluations.
func WithLogger(l *slog.Logger) CycleOption {
	return func(c *Cycle) { c.logger = l }
}

// NewCycle creates an idle Cycle.
func NewCycle(eng engine.Engine, reg *binding.Registry, opts ...CycleOption) *Cycle {
	c := &Cycle{
		engine:     eng,
		registry:   reg,
		entryPoint: DefaultEntryPoint,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state. It does not block on a running evaluation.
func (c *Cycle) State() State {
	return State(c.state.Load())
}

// Last returns the most recent result, or nil before the first Render.
func (c *Cycle) Last() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Reset forgets the memoized result and returns the cycle to idle.
func (c *Cycle) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = cycleKey{}
	c.result = nil
	c.state.Store(int32(StateIdle))
}

// Render evaluates src for componentType. It never panics and never returns nil.
func (c *Cycle) Render(componentType, src string) *Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cycleKey{componentType: componentType, source: src}
	if c.result != nil && c.key == key {
		return c.result
	}

	c.state.Store(int32(StateEvaluating))
	start := time.Now()
	r := c.evaluate(componentType, src)

	c.key, c.result = key, r
	if r.Failed() {
		c.state.Store(int32(StateFailed))
		c.logger.Warn("preview evaluation failed",
			slog.String("componentType", componentType),
			slog.String("kind", string(r.Error.Kind)),
			slog.String("name", r.Error.Name),
			slog.String("message", r.Error.Message),
			slog.Duration("took", time.Since(start)),
		)
	} else {
		c.state.Store(int32(StateRendered))
		c.logger.Debug("preview rendered",
			slog.String("componentType", componentType),
			slog.Duration("took", time.Since(start)),
		)
	}
	return r
}

func (c *Cycle) evaluate(componentType, src string) (r *Result) {
	normalizing := true
	defer func() {
		if rec := recover(); rec != nil {
			se := engine.Panic(engine.PhaseInvoke, rec)
			if normalizing {
				se.Kind = engine.KindNormalization
			}
			r = Failure(componentType, se)
		}
	}()

	body := source.Normalize(src)
	normalizing = false

	ep, err := c.engine.Compile(body, c.registry, c.entryPoint)
	if err != nil {
		return Failure(componentType, err)
	}
	value, err := ep.Invoke()
	if err != nil {
		return Failure(componentType, err)
	}
	return Output(componentType, value)
}
