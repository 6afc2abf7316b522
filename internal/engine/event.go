package engine

import (
	"github.com/hyyve/flowcanvas/internal/graph"
	"github.com/hyyve/flowcanvas/internal/viewport"
)

// Event is emitted after every committed change to the graph or viewport.
type Event struct {
	NodesAdded   int `json:"nodesAdded"`
	NodesUpdated int `json:"nodesUpdated"`
	NodesRemoved int `json:"nodesRemoved"`
	EdgesAdded   int `json:"edgesAdded"`
	EdgesRemoved int `json:"edgesRemoved"`

	SelectionChanged bool `json:"selectionChanged,omitempty"`
	Reset            bool `json:"reset,omitempty"`

	ViewportChanged bool              `json:"viewportChanged,omitempty"`
	Viewport        viewport.Viewport `json:"viewport"`

	IDs *EventIDs `json:"ids,omitempty"`
}

// EventIDs names the nodes and edges an event touched.
type EventIDs struct {
	NodesAdded   []string `json:"nodesAdded,omitempty"`
	NodesUpdated []string `json:"nodesUpdated,omitempty"`
	NodesRemoved []string `json:"nodesRemoved,omitempty"`
	EdgesAdded   []string `json:"edgesAdded,omitempty"`
	EdgesRemoved []string `json:"edgesRemoved,omitempty"`
}

// GraphChanged reports whether nodes or edges changed.
func (ev Event) GraphChanged() bool {
	return ev.Reset || ev.NodesAdded+ev.NodesUpdated+ev.NodesRemoved+ev.EdgesAdded+ev.EdgesRemoved > 0
}

func newGraphEvent(c graph.Change, v viewport.Viewport) Event {
	ev := Event{
		NodesAdded:       len(c.NodesAdded),
		NodesUpdated:     len(c.NodesUpdated),
		NodesRemoved:     len(c.NodesRemoved),
		EdgesAdded:       len(c.EdgesAdded),
		EdgesRemoved:     len(c.EdgesRemoved),
		SelectionChanged: c.Selection,
		Reset:            c.Reset,
		Viewport:         v,
	}
	if ev.GraphChanged() && !c.Reset {
		ev.IDs = &EventIDs{
			NodesAdded:   c.NodesAdded,
			NodesUpdated: c.NodesUpdated,
			NodesRemoved: c.NodesRemoved,
			EdgesAdded:   c.EdgesAdded,
			EdgesRemoved: c.EdgesRemoved,
		}
	}
	return ev
}
