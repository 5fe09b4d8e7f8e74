// Package ui holds the host side of the preview vocabulary: the visual tree
// that preview code produces, the component primitives and hooks exposed to
// it, and the HTML rendering of finished trees.
package ui

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// FragmentType is the node type that groups children without a wrapper element.
const FragmentType = "fragment"

// Node is one element of a visual tree.
//
// Children hold *Node values, strings and numbers. Function-valued props
// (onClick and friends) cannot leave the script engine, so they are dropped
// from Props and their names recorded in Events.
type Node struct {
	Type     string         `json:"type"`
	Props    map[string]any `json:"props,omitempty"`
	Children []any          `json:"children,omitempty"`
	Events   []string       `json:"events,omitempty"`
}

// NewNode builds a node from script-style arguments: an optional props object
// followed by any number of children. A leading nil stands for "no props".
func NewNode(typ string, args ...any) *Node {
	n := &Node{Type: typ}

	rest := args
	if len(args) > 0 {
		switch p := args[0].(type) {
		case nil:
			rest = args[1:]
		case map[string]any:
			n.setProps(p)
			rest = args[1:]
		}
	}

	n.Children = appendChildren(nil, rest)
	return n
}

// Prop returns a prop as a string, or "" when absent.
func (n *Node) Prop(key string) string {
	v, ok := n.Props[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func (n *Node) setProps(props map[string]any) {
	for k, v := range props {
		if isFunc(v) {
			n.Events = append(n.Events, k)
			continue
		}
		clean, ok := sanitize(v)
		if !ok {
			continue
		}
		if n.Props == nil {
			n.Props = make(map[string]any, len(props))
		}
		n.Props[k] = clean
	}
	sort.Strings(n.Events)
}

func appendChildren(dst []any, items []any) []any {
	for _, c := range items {
		switch v := c.(type) {
		case nil, bool:
			// null/undefined/true/false render nothing
		case []any:
			dst = appendChildren(dst, v)
		case *Node:
			if v != nil {
				dst = append(dst, v)
			}
		default:
			if clean, ok := sanitize(v); ok && clean != nil {
				dst = append(dst, clean)
			}
		}
	}
	return dst
}

// Clean makes any value an entry point returned safe to encode as JSON and
// to print: function values are dropped wherever they appear, NaN and the
// infinities become nil, and types encoding/json rejects become their
// printed form. A function on its own cleans to nil.
func Clean(v any) any {
	clean, _ := sanitize(v)
	return clean
}

// sanitize is Clean for one value. It reports false when v itself is a
// function, so containers can drop the entry instead of keeping a nil.
func sanitize(v any) (any, bool) {
	switch t := v.(type) {
	case nil, string, bool, int, int32, int64, *Node:
		return t, true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, true
		}
		return t, true
	case float32:
		if f := float64(t); math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, true
		}
		return t, true
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			if c, ok := sanitize(e); ok {
				out[k] = c
			}
		}
		return out, true
	case []any:
		out := make([]any, 0, len(t))
		for _, e := range t {
			if c, ok := sanitize(e); ok {
				out = append(out, c)
			}
		}
		return out, true
	}
	if isFunc(v) {
		return nil, false
	}
	if _, err := json.Marshal(v); err != nil {
		return fmt.Sprint(v), true
	}
	return v, true
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}
