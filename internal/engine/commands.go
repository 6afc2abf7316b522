package engine

import (
	"encoding/json"

	"github.com/hyyve/flowcanvas/internal/edgepath"
	"github.com/hyyve/flowcanvas/internal/geom"
)

// Edge stroke colours by edge type.
const (
	EdgeColorDefault = "#5048e5"
	EdgeColorSuccess = "#10b981"
	EdgeColorError   = "#ef4444"
)

const (
	edgeWidth         = 2
	edgeWidthSelected = 3
	handleDotRadius   = 5
	nodeFill          = "#ffffff"
	nodeStroke        = "#e2e8f0"
	selectionStroke   = "#5048e5"
	marqueeFill       = "rgba(80,72,229,0.08)"
)

// EdgeColor maps an edge type to its stroke colour.
func EdgeColor(typ string) string {
	switch typ {
	case "success":
		return EdgeColorSuccess
	case "error", "failure":
		return EdgeColorError
	}
	return EdgeColorDefault
}

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
// All geometry is in graph coordinates; Transform maps it to the screen.
type DrawCommand struct {
	Op          string             `json:"op"`                 // "edge", "label", "node", "handle", "preview", "marquee"
	ObjectID    string             `json:"objectId,omitempty"` // For hit correlation
	Transform   []float64          `json:"transform,omitempty"`
	Path        []edgepath.Command `json:"path,omitempty"`
	Rect        *geom.Rect         `json:"rect,omitempty"`
	Point       *geom.Point        `json:"point,omitempty"`
	Radius      float64            `json:"radius,omitempty"`
	Text        string             `json:"text,omitempty"`
	NodeType    string             `json:"nodeType,omitempty"`
	Render      string             `json:"render,omitempty"` // Descriptor capability tag
	Fill        string             `json:"fill,omitempty"`
	Stroke      string             `json:"stroke,omitempty"`
	StrokeWidth float64            `json:"strokeWidth,omitempty"`
	Dashed      bool               `json:"dashed,omitempty"`
	Selected    bool               `json:"selected,omitempty"`
}

// Render compiles the canvas into draw commands in painter's order
// (back to front): edges and their labels, nodes and their handles, then the
// connection preview and marquee of an active gesture.
func (e *Engine) Render() []DrawCommand {
	vp := e.ctrl.Viewport()
	transform := vp.Matrix().ToSlice()
	nodes, edges := e.Layout()

	cmds := make([]DrawCommand, 0, 2*len(edges)+2*len(nodes)+2)
	for _, ev := range edges {
		width := float64(edgeWidth)
		if ev.Edge.Selected {
			width = edgeWidthSelected
		}
		cmds = append(cmds, DrawCommand{
			Op:          "edge",
			ObjectID:    ev.Edge.ID,
			Transform:   transform,
			Path:        ev.Path.Commands,
			Stroke:      ev.Color,
			StrokeWidth: width,
			Selected:    ev.Edge.Selected,
		})
		if ev.Label != "" {
			mid := ev.Path.Midpoint
			cmds = append(cmds, DrawCommand{
				Op:        "label",
				ObjectID:  ev.Edge.ID,
				Transform: transform,
				Point:     &mid,
				Text:      ev.Label,
			})
		}
	}

	for _, nv := range nodes {
		bounds := nv.Bounds
		stroke := nodeStroke
		if nv.Node.Selected {
			stroke = selectionStroke
		}
		cmds = append(cmds, DrawCommand{
			Op:          "node",
			ObjectID:    nv.Node.ID,
			Transform:   transform,
			Rect:        &bounds,
			Text:        nv.Descriptor.Label,
			NodeType:    nv.Node.Type,
			Render:      nv.Descriptor.Render,
			Fill:        nodeFill,
			Stroke:      stroke,
			StrokeWidth: 1,
			Dashed:      !nv.Known,
			Selected:    nv.Node.Selected,
		})
		for _, h := range nv.Descriptor.Handles {
			at := nv.HandleAnchor(h.ID).Point
			cmds = append(cmds, DrawCommand{
				Op:        "handle",
				ObjectID:  nv.Node.ID + ":" + h.ID,
				Transform: transform,
				Point:     &at,
				Radius:    handleDotRadius / vp.Zoom,
				Fill:      nv.Descriptor.Accent,
			})
		}
	}

	if p, ok := e.ctrl.Preview(); ok {
		stroke := EdgeColorDefault
		if p.Target != nil {
			stroke = EdgeColorSuccess
			if !p.Valid {
				stroke = EdgeColorError
			}
		}
		path := edgepath.Compute(edgepath.Anchor{Point: p.From}, edgepath.Anchor{Point: p.To})
		cmds = append(cmds, DrawCommand{
			Op:          "preview",
			Transform:   transform,
			Path:        path.Commands,
			Stroke:      stroke,
			StrokeWidth: edgeWidth,
			Dashed:      true,
		})
	}

	if r, ok := e.ctrl.Marquee(); ok {
		cmds = append(cmds, DrawCommand{
			Op:          "marquee",
			Transform:   transform,
			Rect:        &r,
			Fill:        marqueeFill,
			Stroke:      selectionStroke,
			StrokeWidth: 1 / vp.Zoom,
		})
	}
	return cmds
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// RenderJSON is Render serialized for the JS bridge.
func (e *Engine) RenderJSON() string {
	out, _ := DrawCommandsToJSON(e.Render())
	return out
}
