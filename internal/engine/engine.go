// Package engine defines how preview source becomes something callable.
//
// THE WRAPPING TRICK
// A preview is a fragment of script, not a module. The engine turns it into
// one anonymous function:
//
//	function (<registry names...>) {
//	    <normalized source>
//	    return <entry point>;
//	}
//
// and calls it with the registry values. Whatever the function returns is the
// entry point: usually a component function, occasionally a finished value.
//
// The function is built through the runtime's own Function constructor. That is
// the only place in a backend where text turns into code, which keeps the
// dangerous part small and easy to audit.
package engine

import (
	"errors"
	"fmt"

	"github.com/sakif/component-playground/internal/binding"
)

// Engine compiles preview source against a registry.
type Engine interface {
	// Compile wraps body, constructs the function and runs it once to obtain
	// the entry point. body must already be normalized.
	Compile(body string, reg *binding.Registry, entryPoint string) (EntryPoint, error)
}

// EntryPoint is the callable a successful Compile returns.
type EntryPoint interface {
	// Invoke calls the entry point with no arguments. Values that are not
	// callable are returned as they are.
	Invoke() (any, error)
}

// Native is implemented by registry values that expose something other than
// themselves to an in-process engine, typically a Go function.
type Native interface {
	Native() any
}

// Declarer is implemented by registry values that can describe themselves as
// a script expression, for engines that run outside the process.
type Declarer interface {
	Declare() string
}

// PreludeProvider is implemented by values whose declaration depends on helper
// script that must run first. Identical preludes are emitted once.
type PreludeProvider interface {
	Prelude() string
}

// ErrorKind classifies a failed evaluation.
type ErrorKind string

const (
	KindNormalization ErrorKind = "normalization"
	KindCompilation   ErrorKind = "compilation"
	KindReference     ErrorKind = "reference"
	KindRuntime       ErrorKind = "runtime"
)

// Phase says where in the pipeline a script error happened.
type Phase string

const (
	PhaseCompile   Phase = "compile"   // building the function from text
	PhaseConstruct Phase = "construct" // running the wrapper to get the entry point
	PhaseInvoke    Phase = "invoke"    // calling the entry point
)

// ScriptError is a failure raised by, or while preparing, user code.
type ScriptError struct {
	Kind    ErrorKind
	Phase   Phase
	Name    string // script-level error name, e.g. "ReferenceError"
	Message string
	Stack   string
	Err     error // underlying runtime error, if any
}

func (e *ScriptError) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return e.Name + ": " + e.Message
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// ErrInvalidEntryPoint is wrapped by the error Compile returns for an entry
// point name that is not a plain identifier. The name is spliced into the
// wrapper, so anything else could change the program.
var ErrInvalidEntryPoint = errors.New("invalid entry point name")

// CheckEntryPoint validates an entry point name.
func CheckEntryPoint(name string) error {
	if !binding.IsIdentifier(name) {
		return &ScriptError{
			Kind:    KindCompilation,
			Phase:   PhaseCompile,
			Name:    "SyntaxError",
			Message: fmt.Sprintf("%q is not a valid entry point name", name),
			Err:     ErrInvalidEntryPoint,
		}
	}
	return nil
}

// Wrap appends the entry point return statement to body. The newline keeps a
// trailing line comment in body from swallowing the return.
func Wrap(body, entryPoint string) string {
	return body + "\nreturn " + entryPoint + ";"
}

// KindOf maps a script error name to an ErrorKind.
func KindOf(name string) ErrorKind {
	switch name {
	case "SyntaxError":
		return KindCompilation
	case "ReferenceError":
		return KindReference
	default:
		return KindRuntime
	}
}

// NativeValue returns what an in-process engine should expose for v.
func NativeValue(v any) any {
	if n, ok := v.(Native); ok {
		return n.Native()
	}
	return v
}

// Panic converts a recovered Go panic into a runtime ScriptError.
func Panic(phase Phase, recovered any) *ScriptError {
	err, _ := recovered.(error)
	return &ScriptError{
		Kind:    KindRuntime,
		Phase:   phase,
		Name:    "HostPanic",
		Message: fmt.Sprint(recovered),
		Err:     err,
	}
}
