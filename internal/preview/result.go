// Package preview turns edited source into something a display surface can
// show: a rendered tree, or an error panel plus one deferred report.
package preview

import (
	"errors"
	"sync"

	"github.com/sakif/component-playground/internal/engine"
	"github.com/sakif/component-playground/internal/ui"
)

// Kind tags a Result.
type Kind string

const (
	KindOutput Kind = "output"
	KindError  Kind = "error"
)

// ErrorKind classifies a failed render.
type ErrorKind = engine.ErrorKind

// ErrorDescriptor is the shape every failure is reduced to before it leaves
// the cycle.
type ErrorDescriptor struct {
	Kind    ErrorKind `json:"kind"`
	Name    string    `json:"name"`
	Message string    `json:"message"`
	Stack   string    `json:"stack,omitempty"`
}

// Result is the outcome of rendering one source snapshot. Exactly one of
// Value (KindOutput) or Error (KindError) is meaningful.
type Result struct {
	Kind          Kind             `json:"kind"`
	ComponentType string           `json:"componentType,omitempty"`
	Value         any              `json:"value,omitempty"`
	Error         *ErrorDescriptor `json:"error,omitempty"`

	reportOnce sync.Once
}

// Failed reports whether r carries an error.
func (r *Result) Failed() bool {
	return r.Kind == KindError
}

// Output builds a successful result. The value is cleaned with ui.Clean so
// whatever the entry point returned can be encoded and displayed.
func Output(componentType string, value any) *Result {
	return &Result{Kind: KindOutput, ComponentType: componentType, Value: ui.Clean(value)}
}

// Failure builds an error result from err.
func Failure(componentType string, err error) *Result {
	d := Describe(err)
	return &Result{Kind: KindError, ComponentType: componentType, Error: &d}
}

// Describe reduces any error to an ErrorDescriptor. Errors that did not come
// from user code are reported as runtime errors.
func Describe(err error) ErrorDescriptor {
	var se *engine.ScriptError
	if errors.As(err, &se) {
		return ErrorDescriptor{
			Kind:    se.Kind,
			Name:    se.Name,
			Message: se.Message,
			Stack:   se.Stack,
		}
	}
	return ErrorDescriptor{
		Kind:    engine.KindRuntime,
		Name:    "Error",
		Message: err.Error(),
	}
}
