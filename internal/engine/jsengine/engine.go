// Package jsengine evaluates previews in an embedded ECMAScript VM (goja).
//
// Registry values are handed to the VM as Go values: element functions,
// hooks and the tracker are called straight from script, and the trees they
// build stay Go structs the whole way through. Nothing is serialized.
package jsengine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dop251/goja"

	"github.com/sakif/component-playground/internal/binding"
	"github.com/sakif/component-playground/internal/engine"
)

// Engine compiles previews in a fresh goja runtime per Compile.
type Engine struct {
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout interrupts construction or invocation that runs longer than d.
// Zero disables the guard.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ engine.Engine = (*Engine)(nil)

// Compile implements engine.Engine.
func (e *Engine) Compile(body string, reg *binding.Registry, entryPoint string) (ep engine.EntryPoint, err error) {
	if err := engine.CheckEntryPoint(entryPoint); err != nil {
		return nil, err
	}

	start := time.Now()
	vm := goja.New()
	// *ui.Node and friends are read from script by their JSON names.
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	phase := engine.PhaseCompile
	defer func() {
		if r := recover(); r != nil {
			ep, err = nil, engine.Panic(phase, r)
		}
	}()

	ctor, ok := goja.AssertConstructor(vm.Get("Function"))
	if !ok {
		return nil, fmt.Errorf("jsengine: Function constructor unavailable")
	}

	names := reg.Names()
	args := make([]goja.Value, 0, len(names)+1)
	for _, name := range names {
		args = append(args, vm.ToValue(name))
	}
	args = append(args, vm.ToValue(engine.Wrap(body, entryPoint)))

	stop := e.guard(vm)
	defer stop()

	wrapper, err := ctor(nil, args...)
	if err != nil {
		return nil, scriptError(engine.PhaseCompile, err)
	}
	call, ok := goja.AssertFunction(wrapper)
	if !ok {
		return nil, fmt.Errorf("jsengine: constructed wrapper is not callable")
	}

	phase = engine.PhaseConstruct
	values := reg.Values()
	params := make([]goja.Value, len(values))
	for i, v := range values {
		params[i] = vm.ToValue(engine.NativeValue(v))
	}

	ret, err := call(goja.Undefined(), params...)
	if err != nil {
		return nil, scriptError(engine.PhaseConstruct, err)
	}

	e.logger.Debug("preview compiled",
		slog.String("entryPoint", entryPoint),
		slog.Int("bindings", len(names)),
		slog.Duration("took", time.Since(start)),
	)
	return &entryPointValue{engine: e, vm: vm, value: ret}, nil
}

// guard arms the optional timeout and returns its disarm function.
func (e *Engine) guard(vm *goja.Runtime) func() {
	if e.timeout <= 0 {
		return func() {}
	}
	timeout := e.timeout
	t := time.AfterFunc(timeout, func() {
		vm.Interrupt(fmt.Sprintf("evaluation exceeded %s", timeout))
	})
	return func() {
		t.Stop()
		vm.ClearInterrupt()
	}
}

// entryPointValue is what the wrapper returned, still bound to its runtime.
type entryPointValue struct {
	engine *Engine
	vm     *goja.Runtime
	value  goja.Value
}

// Invoke implements engine.EntryPoint.
func (p *entryPointValue) Invoke() (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, engine.Panic(engine.PhaseInvoke, r)
		}
	}()

	fn, ok := goja.AssertFunction(p.value)
	if !ok {
		return export(p.value), nil
	}

	stop := p.engine.guard(p.vm)
	defer stop()

	ret, err := fn(goja.Undefined())
	if err != nil {
		return nil, scriptError(engine.PhaseInvoke, err)
	}
	return export(ret), nil
}

func export(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}

// scriptError turns a goja error into an engine.ScriptError.
func scriptError(phase engine.Phase, err error) *engine.ScriptError {
	se := &engine.ScriptError{
		Phase:   phase,
		Name:    "Error",
		Message: err.Error(),
		Err:     err,
	}

	var interrupted *goja.InterruptedError
	var exc *goja.Exception
	switch {
	case errors.As(err, &interrupted):
		se.Name = "TimeoutError"
		se.Message = fmt.Sprint(interrupted.Value())
		se.Stack = interrupted.String()
	case errors.As(err, &exc):
		se.Stack = exc.String()
		obj, ok := exc.Value().(*goja.Object)
		if !ok {
			// throw "text" and friends
			se.Message = valueString(exc.Value())
			break
		}
		if name := valueString(obj.Get("name")); name != "" {
			se.Name = name
		}
		se.Message = valueString(obj.Get("message"))
		if stack := valueString(obj.Get("stack")); stack != "" {
			se.Stack = stack
		}
	}

	se.Kind = engine.KindOf(se.Name)
	return se
}

func valueString(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}
