package interaction

import (
	"github.com/hyyve/flowcanvas/internal/geom"
	"github.com/hyyve/flowcanvas/internal/graph"
	"github.com/hyyve/flowcanvas/internal/nodetype"
)

// Pointer buttons, numbered as in DOM MouseEvent.button.
const (
	ButtonPrimary   = 0
	ButtonMiddle    = 1
	ButtonSecondary = 2
)

// Keys, named as in DOM KeyboardEvent.key.
const (
	KeyEscape    = "Escape"
	KeyDelete    = "Delete"
	KeyBackspace = "Backspace"
)

// Modifiers are the keyboard modifiers held during a pointer event.
type Modifiers struct {
	Shift bool `json:"shift,omitempty"`
	Ctrl  bool `json:"ctrl,omitempty"`
	Meta  bool `json:"meta,omitempty"`
	Alt   bool `json:"alt,omitempty"`
}

// Additive reports whether a click should toggle instead of replace the selection.
func (m Modifiers) Additive() bool {
	return m.Shift || m.Ctrl || m.Meta
}

// PointerEvent is a pointer event in screen coordinates.
type PointerEvent struct {
	Point  geom.Point `json:"point"`
	Button int        `json:"button"`
	Mods   Modifiers  `json:"mods"`
}

// TargetKind says what a hit test found.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetNode
	TargetHandle
	TargetEdge
)

func (k TargetKind) String() string {
	switch k {
	case TargetNode:
		return "node"
	case TargetHandle:
		return "handle"
	case TargetEdge:
		return "edge"
	}
	return "none"
}

// Target is the result of a hit test.
type Target struct {
	Kind     TargetKind    `json:"kind"`
	NodeID   string        `json:"nodeId,omitempty"`
	HandleID string        `json:"handleId,omitempty"`
	Role     nodetype.Role `json:"role,omitempty"`
	EdgeID   string        `json:"edgeId,omitempty"`
}

// Handle returns the handle reference of a TargetHandle hit.
func (t Target) Handle() graph.HandleRef {
	return graph.HandleRef{NodeID: t.NodeID, HandleID: t.HandleID}
}

// ConnectionPreview describes the line drawn while connecting, in graph coordinates.
type ConnectionPreview struct {
	From       geom.Point       `json:"from"`
	To         geom.Point       `json:"to"`
	FromHandle graph.HandleRef  `json:"fromHandle"`
	Target     *graph.HandleRef `json:"target,omitempty"`
	Valid      bool             `json:"valid"`
	Reason     graph.Reason     `json:"reason,omitempty"`
}
