package engine

import (
	"encoding/json"

	"github.com/hyyve/flowcanvas/internal/edgepath"
	"github.com/hyyve/flowcanvas/internal/geom"
	"github.com/hyyve/flowcanvas/internal/graph"
	"github.com/hyyve/flowcanvas/internal/interaction"
	"github.com/hyyve/flowcanvas/internal/nodetype"
)

// NodeView is a node with everything needed to draw it.
type NodeView struct {
	Node       graph.Node          `json:"node"`
	Descriptor nodetype.Descriptor `json:"descriptor"`
	// Known is false when the type is not registered and Descriptor is the fallback.
	Known  bool      `json:"known"`
	Bounds geom.Rect `json:"bounds"`
}

// HandleAnchor returns a handle's graph position on this node. Handles the
// descriptor does not declare anchor at the node centre.
func (v NodeView) HandleAnchor(handleID string) edgepath.Anchor {
	if h, ok := v.Descriptor.Handle(handleID); ok {
		return edgepath.Anchor{Point: nodetype.Anchor(h, v.Bounds), Side: h.Side}
	}
	return edgepath.Anchor{Point: v.Bounds.Center()}
}

// EdgeView is an edge with its computed curve.
type EdgeView struct {
	Edge  graph.Edge    `json:"edge"`
	Path  edgepath.Path `json:"path"`
	Color string        `json:"color"`
	Label string        `json:"label,omitempty"`
}

// Renderer receives the laid out graph in painter's order: edges first, then nodes.
type Renderer interface {
	DrawEdge(EdgeView)
	DrawNode(NodeView)
}

// descriptor resolves a node type, logging unknown types once.
func (e *Engine) descriptor(typ string) (nodetype.Descriptor, bool) {
	d, ok := e.registry.ResolveOrFallback(typ)
	if !ok && !e.warned[typ] {
		e.warned[typ] = true
		e.logger.Warn("unknown node type, drawing fallback", "type", typ)
	}
	return d, ok
}

func (e *Engine) nodeView(n graph.Node) NodeView {
	d, known := e.descriptor(n.Type)
	size := d.DefaultSize
	if n.Size != nil {
		size = *n.Size
	}
	return NodeView{Node: n, Descriptor: d, Known: known, Bounds: geom.RectAt(n.Position, size)}
}

// NodeView lays out a single node.
func (e *Engine) NodeView(id string) (NodeView, bool) {
	n, ok := e.graph.Node(id)
	if !ok {
		return NodeView{}, false
	}
	return e.nodeView(n), true
}

// Layout computes the views of every node and edge in insertion order.
func (e *Engine) Layout() ([]NodeView, []EdgeView) {
	nodes := e.graph.Nodes()
	nviews := make([]NodeView, len(nodes))
	byID := make(map[string]NodeView, len(nodes))
	for i, n := range nodes {
		nviews[i] = e.nodeView(n)
		byID[n.ID] = nviews[i]
	}

	edges := e.graph.Edges()
	eviews := make([]EdgeView, 0, len(edges))
	for _, ed := range edges {
		src, ok1 := byID[ed.Source.NodeID]
		dst, ok2 := byID[ed.Target.NodeID]
		if !ok1 || !ok2 {
			continue
		}
		eviews = append(eviews, EdgeView{
			Edge:  ed,
			Path:  edgepath.Compute(src.HandleAnchor(ed.Source.HandleID), dst.HandleAnchor(ed.Target.HandleID)),
			Color: EdgeColor(ed.Type),
			Label: edgeLabel(ed.Data),
		})
	}
	return nviews, eviews
}

// Paint hands the laid out graph to r.
func (e *Engine) Paint(r Renderer) {
	nodes, edges := e.Layout()
	for _, ev := range edges {
		r.DrawEdge(ev)
	}
	for _, nv := range nodes {
		r.DrawNode(nv)
	}
}

// ContentBounds is the union of every node's bounds.
func (e *Engine) ContentBounds() geom.Rect {
	nodes, _ := e.Layout()
	rects := make([]geom.Rect, len(nodes))
	for i, n := range nodes {
		rects[i] = n.Bounds
	}
	return geom.Bounds(rects)
}

// SelectionBounds is the union of the selected nodes' bounds.
func (e *Engine) SelectionBounds() geom.Rect {
	var out geom.Rect
	for _, id := range e.graph.Selection().Nodes {
		if v, ok := e.NodeView(id); ok {
			out = out.Union(v.Bounds)
		}
	}
	return out
}

func edgeLabel(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var d struct {
		Label string `json:"label"`
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return ""
	}
	return d.Label
}

// --- interaction.Scene ---

// HitTest finds the topmost handle, node or edge at a graph point.
// Handles win over the node body they sit on; nodes are above edges.
func (e *Engine) HitTest(p geom.Point, tolerance float64) interaction.Target {
	nodes, edges := e.Layout()

	for i := len(nodes) - 1; i >= 0; i-- {
		nv := nodes[i]
		for _, h := range nv.Descriptor.Handles {
			if p.Distance(nodetype.Anchor(h, nv.Bounds)) <= tolerance {
				return interaction.Target{Kind: interaction.TargetHandle, NodeID: nv.Node.ID, HandleID: h.ID, Role: h.Role}
			}
		}
		if nv.Bounds.Contains(p) {
			return interaction.Target{Kind: interaction.TargetNode, NodeID: nv.Node.ID}
		}
	}

	for i := len(edges) - 1; i >= 0; i-- {
		ev := edges[i]
		if !ev.Path.Bounds().Expand(tolerance).Contains(p) {
			continue
		}
		if ev.Path.Distance(p) <= tolerance {
			return interaction.Target{Kind: interaction.TargetEdge, EdgeID: ev.Edge.ID}
		}
	}
	return interaction.Target{}
}

// HitTestScreen is HitTest for a screen point.
func (e *Engine) HitTestScreen(p geom.Point) interaction.Target {
	v := e.ctrl.Viewport()
	return e.HitTest(e.ScreenToGraph(p), e.handleRadius/v.Zoom)
}

// NodesWithin returns the nodes lying entirely inside r.
func (e *Engine) NodesWithin(r geom.Rect) []string {
	nodes, _ := e.Layout()
	var ids []string
	for _, nv := range nodes {
		if r.ContainsRect(nv.Bounds) {
			ids = append(ids, nv.Node.ID)
		}
	}
	return ids
}

// HandleAnchor returns the graph position of a handle.
func (e *Engine) HandleAnchor(h graph.HandleRef) (geom.Point, bool) {
	nv, ok := e.NodeView(h.NodeID)
	if !ok {
		return geom.Point{}, false
	}
	return nv.HandleAnchor(h.HandleID).Point, true
}
