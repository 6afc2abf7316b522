package graph

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hyyve/flowcanvas/internal/geom"
)

// HandleRef addresses one connection point on one node.
type HandleRef struct {
	NodeID   string `json:"nodeId"`
	HandleID string `json:"handleId"`
}

func (h HandleRef) String() string {
	return h.NodeID + ":" + h.HandleID
}

// Node is one placed element on the canvas.
// Data is opaque to the engine; it is stored and copied, never interpreted.
type Node struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Position geom.Point      `json:"position"`
	Size     *geom.Size      `json:"size,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Selected bool            `json:"selected,omitempty"`
}

// Edge is a directed connection from a source handle to a target handle.
// Type only selects a rendering style.
type Edge struct {
	ID       string          `json:"id"`
	Source   HandleRef       `json:"source"`
	Target   HandleRef       `json:"target"`
	Type     string          `json:"type,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Selected bool            `json:"selected,omitempty"`
}

// Touches reports whether the edge references nodeID on either end.
func (e Edge) Touches(nodeID string) bool {
	return e.Source.NodeID == nodeID || e.Target.NodeID == nodeID
}

// Snapshot is a read-only copy of a whole graph, in insertion order.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// DefaultEdgeID derives an edge id from its endpoints.
func DefaultEdgeID(source, target HandleRef) string {
	return fmt.Sprintf("edge-%s-%s-%s-%s", source.NodeID, target.NodeID, handleOr(source.HandleID, "out"), handleOr(target.HandleID, "in"))
}

func handleOr(id, fallback string) string {
	if id == "" {
		return fallback
	}
	return id
}

func cloneNode(n *Node) Node {
	out := *n
	if n.Size != nil {
		s := *n.Size
		out.Size = &s
	}
	out.Data = cloneRaw(n.Data)
	return out
}

func cloneEdge(e *Edge) Edge {
	out := *e
	out.Data = cloneRaw(e.Data)
	return out
}

func cloneRaw(b json.RawMessage) json.RawMessage {
	if b == nil {
		return nil
	}
	return bytes.Clone(b)
}
