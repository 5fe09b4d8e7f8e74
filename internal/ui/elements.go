package ui

import (
	"fmt"

	"github.com/sakif/component-playground/internal/binding"
)

// Element is a component primitive such as Button or Card.
//
// Inside the embedded engine it is exposed as a Go function (Native); inside
// the sandboxed engine it is declared as a JavaScript arrow function that
// builds the same JSON shape (Declare, Prelude).
type Element struct {
	Name string // identifier visible to preview code, e.g. "Button"
	Tag  string // node type, e.g. "button"
}

// Render builds a node of the element's type.
func (e Element) Render(args ...any) *Node {
	return NewNode(e.Tag, args...)
}

// Native returns the Go function exposed to the embedded engine.
func (e Element) Native() any {
	return e.Render
}

// Declare returns a JavaScript expression evaluating to the element function.
func (e Element) Declare() string {
	return fmt.Sprintf("(...args) => __ui.node(%q, args)", e.Tag)
}

// Prelude returns the helper script Declare relies on.
func (e Element) Prelude() string {
	return scriptPrelude
}

// Binding returns the registry entry for the element.
func (e Element) Binding() binding.Binding {
	return binding.Binding{Name: e.Name, Value: e}
}

// Elements is the component vocabulary of the playground, in registry order.
var Elements = []Element{
	{Name: "Fragment", Tag: FragmentType},
	{Name: "Box", Tag: "box"},
	{Name: "Stack", Tag: "stack"},
	{Name: "Row", Tag: "row"},
	{Name: "Text", Tag: "text"},
	{Name: "Heading", Tag: "heading"},
	{Name: "Button", Tag: "button"},
	{Name: "Card", Tag: "card"},
	{Name: "Badge", Tag: "badge"},
	{Name: "Alert", Tag: "alert"},
	{Name: "Input", Tag: "input"},
	{Name: "Image", Tag: "image"},
	{Name: "Link", Tag: "link"},
	{Name: "List", Tag: "list"},
	{Name: "ListItem", Tag: "list-item"},
	{Name: "Divider", Tag: "divider"},
}

// scriptPrelude mirrors NewNode for script engines that cannot call back into
// Go. Nodes are tagged with a non-enumerable marker so a node passed first is
// treated as a child, not as props, and the marker never reaches JSON.
const scriptPrelude = `const __ui = (() => {
  const isNode = (v) => v !== null && typeof v === "object" && v.__uiNode === true;
  const isProps = (v) => v !== null && typeof v === "object" && !Array.isArray(v) && !isNode(v);
  const clean = (v) => {
    if (typeof v === "function") return undefined;
    if (Array.isArray(v)) return v.map(clean).filter((e) => e !== undefined);
    if (v !== null && typeof v === "object" && !isNode(v)) {
      const out = {};
      for (const k of Object.keys(v)) {
        const c = clean(v[k]);
        if (c !== undefined) out[k] = c;
      }
      return out;
    }
    return v;
  };
  const flat = (items, out) => {
    for (const c of items) {
      if (Array.isArray(c)) flat(c, out);
      else if (c === undefined || c === null || typeof c === "boolean" || typeof c === "function") continue;
      else out.push(isNode(c) ? c : clean(c));
    }
    return out;
  };
  return {
    node(type, args) {
      let rest = args;
      let props = null;
      if (args.length > 0 && (args[0] === null || args[0] === undefined || isProps(args[0]))) {
        props = args[0];
        rest = args.slice(1);
      }
      const n = { type };
      const events = [];
      const kept = {};
      let hasProps = false;
      if (props) {
        for (const k of Object.keys(props)) {
          if (typeof props[k] === "function") { events.push(k); continue; }
          kept[k] = clean(props[k]);
          hasProps = true;
        }
      }
      if (hasProps) n.props = kept;
      const children = flat(rest, []);
      if (children.length > 0) n.children = children;
      if (events.length > 0) n.events = events.sort();
      Object.defineProperty(n, "__uiNode", { value: true, enumerable: false });
      return n;
    },
  };
})();`
