package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeTree turns the JSON form of a visual tree back into *Node values.
// Objects that look like nodes (a string "type" and no keys besides type,
// props, children and events) become *Node; everything else stays generic.
func DecodeTree(raw []byte) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("ui: decoding tree: %w", err)
	}
	return fromJSON(v), nil
}

func fromJSON(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromJSON(e)
		}
		return out
	case map[string]any:
		if n, ok := nodeFromMap(t); ok {
			return n
		}
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = fromJSON(e)
		}
		return out
	}
	return v
}

func nodeFromMap(m map[string]any) (*Node, bool) {
	typ, ok := m["type"].(string)
	if !ok {
		return nil, false
	}
	for k := range m {
		switch k {
		case "type", "props", "children", "events":
		default:
			return nil, false
		}
	}

	n := &Node{Type: typ}
	if props, ok := m["props"].(map[string]any); ok {
		n.Props = make(map[string]any, len(props))
		for k, v := range props {
			n.Props[k] = fromJSON(v)
		}
	}
	if children, ok := m["children"].([]any); ok {
		n.Children = make([]any, len(children))
		for i, c := range children {
			n.Children[i] = fromJSON(c)
		}
	}
	if events, ok := m["events"].([]any); ok {
		for _, e := range events {
			if s, ok := e.(string); ok {
				n.Events = append(n.Events, s)
			}
		}
	}
	return n, true
}
