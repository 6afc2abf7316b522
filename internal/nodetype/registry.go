// Package nodetype maps a node's type key to the descriptor that drives its
// layout: default size, handles and a render capability tag. The engine never
// special-cases a concrete type; new node kinds are registered here.
package nodetype

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hyyve/flowcanvas/internal/geom"
)

var (
	ErrUnknownType       = errors.New("nodetype: unknown type")
	ErrAlreadyRegistered = errors.New("nodetype: type already registered")
	ErrInvalidDescriptor = errors.New("nodetype: invalid descriptor")
)

// Role distinguishes input handles from output handles.
type Role string

const (
	RoleInput  Role = "input"
	RoleOutput Role = "output"
)

// Side is the node edge a handle sits on.
type Side string

const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
)

// Handle describes one connection point.
type Handle struct {
	ID   string `json:"id" toml:"id"`
	Role Role   `json:"role" toml:"role"`
	Side Side   `json:"side" toml:"side"`
	// Offset is the position along the side, 0..1. Zero means centred.
	Offset float64 `json:"offset,omitempty" toml:"offset"`
}

// Descriptor is everything the engine knows about a node type.
type Descriptor struct {
	Type        string    `json:"type" toml:"type"`
	Category    string    `json:"category,omitempty" toml:"category"`
	Label       string    `json:"label,omitempty" toml:"label"`
	DefaultSize geom.Size `json:"defaultSize" toml:"-"`
	Handles     []Handle  `json:"handles" toml:"handles"`
	// Render is a capability tag for the rendering layer ("card", "pill", "box"...).
	Render string `json:"render" toml:"render"`
	Accent string `json:"accent,omitempty" toml:"accent"`
}

// Handle looks up a handle by id.
func (d Descriptor) Handle(id string) (Handle, bool) {
	for _, h := range d.Handles {
		if h.ID == id {
			return h, true
		}
	}
	return Handle{}, false
}

func (d Descriptor) validate() error {
	if d.DefaultSize.IsEmpty() {
		return fmt.Errorf("%w: %s: default size must be positive", ErrInvalidDescriptor, d.Type)
	}
	seen := make(map[string]bool, len(d.Handles))
	for _, h := range d.Handles {
		if h.ID == "" {
			return fmt.Errorf("%w: %s: handle without id", ErrInvalidDescriptor, d.Type)
		}
		if seen[h.ID] {
			return fmt.Errorf("%w: %s: duplicate handle %q", ErrInvalidDescriptor, d.Type, h.ID)
		}
		seen[h.ID] = true
		if h.Role != RoleInput && h.Role != RoleOutput {
			return fmt.Errorf("%w: %s: handle %q has role %q", ErrInvalidDescriptor, d.Type, h.ID, h.Role)
		}
		switch h.Side {
		case SideTop, SideRight, SideBottom, SideLeft:
		default:
			return fmt.Errorf("%w: %s: handle %q has side %q", ErrInvalidDescriptor, d.Type, h.ID, h.Side)
		}
		if h.Offset < 0 || h.Offset > 1 {
			return fmt.Errorf("%w: %s: handle %q offset out of range", ErrInvalidDescriptor, d.Type, h.ID)
		}
	}
	return nil
}

// Fallback is the descriptor used to draw nodes whose type is not registered.
// It has no handles, so nothing new can be connected to such a node.
var Fallback = Descriptor{
	Type:        "",
	Category:    "unknown",
	Label:       "Unknown node",
	DefaultSize: geom.Sz(160, 60),
	Render:      "box",
}

// Registry holds the descriptors of one engine instance.
type Registry struct {
	types map[string]Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Descriptor)}
}

// Register adds a descriptor under key.
func (r *Registry) Register(key string, d Descriptor) error {
	if key == "" {
		return fmt.Errorf("%w: empty type key", ErrInvalidDescriptor)
	}
	if _, ok := r.types[key]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, key)
	}
	d.Type = key
	if err := d.validate(); err != nil {
		return err
	}
	d.Handles = append([]Handle(nil), d.Handles...)
	r.types[key] = d
	return nil
}

// Resolve returns the descriptor for key or ErrUnknownType.
func (r *Registry) Resolve(key string) (Descriptor, error) {
	d, ok := r.types[key]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownType, key)
	}
	return d, nil
}

// ResolveOrFallback never fails; unknown keys get the generic box.
func (r *Registry) ResolveOrFallback(key string) (Descriptor, bool) {
	d, err := r.Resolve(key)
	if err != nil {
		fb := Fallback
		fb.Type = key
		return fb, false
	}
	return d, true
}

// HandleRole reports the role of a handle on a node type.
func (r *Registry) HandleRole(key, handleID string) (Role, bool) {
	d, ok := r.types[key]
	if !ok {
		return "", false
	}
	h, ok := d.Handle(handleID)
	if !ok {
		return "", false
	}
	return h.Role, true
}

// Keys returns the registered type keys, sorted.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.types))
	for k := range r.types {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Descriptors returns every descriptor, sorted by key.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.types))
	for _, k := range r.Keys() {
		out = append(out, r.types[k])
	}
	return out
}

// Anchor returns the graph-space point of a handle on a node laid out at bounds.
func Anchor(h Handle, bounds geom.Rect) geom.Point {
	t := h.Offset
	if t == 0 {
		t = 0.5
	}
	switch h.Side {
	case SideTop:
		return geom.Pt(bounds.X+bounds.Width*t, bounds.Y)
	case SideBottom:
		return geom.Pt(bounds.X+bounds.Width*t, bounds.Y+bounds.Height)
	case SideLeft:
		return geom.Pt(bounds.X, bounds.Y+bounds.Height*t)
	default:
		return geom.Pt(bounds.X+bounds.Width, bounds.Y+bounds.Height*t)
	}
}
