// Package binding defines the closed vocabulary of identifiers that evaluated
// preview code is allowed to reference.
//
// WHY A CLOSED VOCABULARY?
// User code runs inside a function whose parameters are exactly the registry
// names. Anything not listed here is simply not in scope, so a reference to it
// fails as a ReferenceError instead of reaching host internals.
//
// A Registry is immutable once built. Evaluations are deterministic only if the
// same names map to the same values every time, so there is no Set or Delete.
package binding

import (
	"fmt"
	"unicode"

	"github.com/sakif/component-playground/internal/apperror"
)

// Binding is a single (name, value) pair exposed to evaluated code.
type Binding struct {
	Name  string
	Value any
}

// Registry is an ordered, read-only list of bindings.
//
// Names and values are kept in two parallel slices because that is exactly the
// shape the evaluator needs: formal parameter names in order, then the matching
// positional arguments.
type Registry struct {
	names  []string
	values []any
	index  map[string]int
}

// New builds a registry from the given bindings, in order.
// It rejects empty or invalid identifiers, reserved words and duplicates.
func New(bindings ...Binding) (*Registry, error) {
	r := &Registry{
		names:  make([]string, 0, len(bindings)),
		values: make([]any, 0, len(bindings)),
		index:  make(map[string]int, len(bindings)),
	}

	for _, b := range bindings {
		if !IsIdentifier(b.Name) {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("binding name %q is not a valid identifier", b.Name))
		}
		if _, dup := r.index[b.Name]; dup {
			return nil, apperror.Conflict("binding", b.Name)
		}
		r.index[b.Name] = len(r.names)
		r.names = append(r.names, b.Name)
		r.values = append(r.values, b.Value)
	}

	return r, nil
}

// MustNew is like New but panics on error. Intended for package-level
// registries built from literals.
func MustNew(bindings ...Binding) *Registry {
	r, err := New(bindings...)
	if err != nil {
		panic(err)
	}
	return r
}

// Names returns the binding names in registration order.
// The returned slice is a copy; modifying it does not affect the registry.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Values returns the binding values in the same order as Names.
func (r *Registry) Values() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

// Len reports the number of bindings.
func (r *Registry) Len() int {
	return len(r.names)
}

// Lookup returns the value bound to name.
func (r *Registry) Lookup(name string) (any, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Bindings returns the registry contents as pairs, in order.
func (r *Registry) Bindings() []Binding {
	out := make([]Binding, len(r.names))
	for i, name := range r.names {
		out[i] = Binding{Name: name, Value: r.values[i]}
	}
	return out
}

// With returns a new registry holding the receiver's bindings followed by
// extra. The receiver is left untouched.
//
// Sessions use this to add per-session host services (for example an
// analytics tracker) on top of the shared component vocabulary.
func (r *Registry) With(extra ...Binding) (*Registry, error) {
	all := append(r.Bindings(), extra...)
	return New(all...)
}

// IsIdentifier reports whether name can be used as a parameter name in the
// generated wrapper function.
func IsIdentifier(name string) bool {
	if name == "" || reserved[name] {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_' || c == '$':
		case unicode.IsLetter(c):
		case i > 0 && unicode.IsDigit(c):
		default:
			return false
		}
	}
	return true
}

// reserved lists ECMAScript reserved words that cannot be parameter names.
var reserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "enum": true, "export": true, "extends": true,
	"false": true, "finally": true, "for": true, "function": true, "if": true,
	"import": true, "in": true, "instanceof": true, "new": true, "null": true,
	"return": true, "super": true, "switch": true, "this": true, "throw": true,
	"true": true, "try": true, "typeof": true, "var": true, "void": true,
	"while": true, "with": true, "yield": true, "let": true, "static": true,
	"await": true, "implements": true, "interface": true, "package": true,
	"private": true, "protected": true, "public": true, "arguments": true,
	"eval": true,
}
