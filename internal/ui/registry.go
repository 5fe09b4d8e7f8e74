package ui

import (
	"github.com/sakif/component-playground/internal/binding"
)

// Bindings returns the component primitives followed by the hooks.
func Bindings() []binding.Binding {
	out := make([]binding.Binding, 0, len(Elements)+len(Hooks))
	for _, e := range Elements {
		out = append(out, e.Binding())
	}
	for _, h := range Hooks {
		out = append(out, h.Binding())
	}
	return out
}

// NewRegistry builds the playground registry. When tracker is non-nil a
// "track" binding is appended for it.
func NewRegistry(tracker Tracker) (*binding.Registry, error) {
	bindings := Bindings()
	if tracker != nil {
		bindings = append(bindings, Track(tracker))
	}
	return binding.New(bindings...)
}

// Binding kinds reported by Describe.
const (
	KindComponent = "component"
	KindHook      = "hook"
	KindService   = "service"
	KindValue     = "value"
)

// BindingInfo describes one registry entry for people writing previews.
type BindingInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Tag  string `json:"tag,omitempty"` // node type, components only
}

// Describe lists reg in registry order.
func Describe(reg *binding.Registry) []BindingInfo {
	out := make([]BindingInfo, 0, reg.Len())
	for _, b := range reg.Bindings() {
		info := BindingInfo{Name: b.Name, Kind: KindValue}
		switch v := b.Value.(type) {
		case Element:
			info.Kind, info.Tag = KindComponent, v.Tag
		case hook:
			info.Kind = KindHook
		case trackBinding:
			info.Kind = KindService
		}
		out = append(out, info)
	}
	return out
}
