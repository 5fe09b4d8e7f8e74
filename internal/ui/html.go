package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// elementSpec maps a node type to the HTML element used in the preview pane.
type elementSpec struct {
	tag  string
	role string
}

var elementSpecs = map[string]elementSpec{
	"box":       {tag: "div"},
	"stack":     {tag: "div"},
	"row":       {tag: "div"},
	"text":      {tag: "span"},
	"heading":   {tag: "h2"},
	"button":    {tag: "button"},
	"card":      {tag: "section"},
	"badge":     {tag: "span"},
	"alert":     {tag: "div", role: "alert"},
	"input":     {tag: "input"},
	"image":     {tag: "img"},
	"link":      {tag: "a"},
	"list":      {tag: "ul"},
	"list-item": {tag: "li"},
	"divider":   {tag: "hr"},
}

// passthrough props become HTML attributes of the same name; every other
// scalar prop is written as data-<name>.
var passthrough = map[string]bool{
	"id": true, "title": true, "href": true, "src": true, "alt": true,
	"placeholder": true, "type": true, "value": true, "name": true,
	"disabled": true, "checked": true, "target": true, "width": true, "height": true,
}

// RenderHTML writes tree as HTML. tree is whatever a preview entry point
// returned: a *Node, a list of them, or a scalar rendered as text.
func RenderHTML(w io.Writer, tree any) error {
	for _, n := range toHTML(tree) {
		if err := html.Render(w, n); err != nil {
			return fmt.Errorf("ui: rendering html: %w", err)
		}
	}
	return nil
}

func toHTML(v any) []*html.Node {
	switch t := v.(type) {
	case nil:
		return nil
	case *Node:
		if t == nil {
			return nil
		}
		return t.htmlNodes()
	case []any:
		var out []*html.Node
		for _, c := range t {
			out = append(out, toHTML(c)...)
		}
		return out
	case string:
		return []*html.Node{{Type: html.TextNode, Data: t}}
	case bool:
		return nil
	default:
		return []*html.Node{{Type: html.TextNode, Data: fmt.Sprint(t)}}
	}
}

func (n *Node) htmlNodes() []*html.Node {
	if n.Type == FragmentType {
		return toHTML(n.Children)
	}

	spec, known := elementSpecs[n.Type]
	if !known {
		spec = elementSpec{tag: "div"}
	}
	tag := spec.tag
	if n.Type == "heading" {
		tag = headingTag(n.Prop("level"))
	}

	el := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	el.Attr = append(el.Attr,
		html.Attribute{Key: "class", Val: strings.TrimSpace("pg-" + n.Type + " " + n.Prop("className"))},
		html.Attribute{Key: "data-component", Val: n.Type},
	)
	if spec.role != "" {
		el.Attr = append(el.Attr, html.Attribute{Key: "role", Val: spec.role})
	}
	el.Attr = append(el.Attr, n.attributes()...)
	if len(n.Events) > 0 {
		el.Attr = append(el.Attr, html.Attribute{Key: "data-events", Val: strings.Join(n.Events, " ")})
	}

	if isVoid(tag) {
		return []*html.Node{el}
	}

	children := n.Children
	if len(children) == 0 {
		// Buttons, badges and friends are often written as Button({label: "Save"}).
		if label := n.Prop("label"); label != "" {
			children = []any{label}
		}
	}
	for _, c := range toHTML(children) {
		el.AppendChild(c)
	}
	return []*html.Node{el}
}

func (n *Node) attributes() []html.Attribute {
	keys := make([]string, 0, len(n.Props))
	for k := range n.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var attrs []html.Attribute
	for _, k := range keys {
		if k == "className" || k == "level" || !validAttrName(k) {
			continue
		}
		v := n.Props[k]
		switch v.(type) {
		case string, bool, int, int32, int64, float32, float64:
		default:
			continue
		}
		val := fmt.Sprint(v)
		if (k == "href" || k == "src") && unsafeURL(val) {
			continue
		}
		key := k
		if !passthrough[k] {
			key = "data-" + strings.ToLower(k)
		}
		if b, ok := v.(bool); ok {
			if !b {
				continue
			}
			val = ""
		}
		attrs = append(attrs, html.Attribute{Key: key, Val: val})
	}
	return attrs
}

func headingTag(level string) string {
	switch level {
	case "1", "2", "3", "4", "5", "6":
		return "h" + level
	}
	return "h2"
}

func isVoid(tag string) bool {
	switch tag {
	case "img", "input", "hr", "br":
		return true
	}
	return false
}

func validAttrName(k string) bool {
	if k == "" {
		return false
	}
	for _, c := range k {
		if !(c == '-' || c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')) {
			return false
		}
	}
	return true
}

func unsafeURL(u string) bool {
	u = strings.ToLower(strings.TrimSpace(u))
	return strings.HasPrefix(u, "javascript:") || strings.HasPrefix(u, "vbscript:") || strings.HasPrefix(u, "data:text/html")
}
