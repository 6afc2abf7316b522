// Package graph is the canvas data model: nodes, edges and the current selection.
//
// The Graph is not safe for concurrent use. It is driven from a single event loop
// and rejects mutations issued while another mutation (or its change callback)
// is still running.
package graph

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/hyyve/flowcanvas/internal/geom"
	"github.com/hyyve/flowcanvas/internal/typeid"
)

// Change describes one committed mutation.
type Change struct {
	NodesAdded   []string
	NodesUpdated []string
	NodesRemoved []string
	EdgesAdded   []string
	EdgesRemoved []string
	Selection    bool
	// Reset is set when the whole graph was replaced by Load or Clear.
	Reset bool
}

// Empty reports whether the change carries nothing.
func (c *Change) Empty() bool {
	return len(c.NodesAdded) == 0 && len(c.NodesUpdated) == 0 && len(c.NodesRemoved) == 0 &&
		len(c.EdgesAdded) == 0 && len(c.EdgesRemoved) == 0 && !c.Selection && !c.Reset
}

type connection struct {
	source HandleRef
	target HandleRef
}

// Graph owns the nodes and edges of one canvas.
type Graph struct {
	nodes *orderedmap.OrderedMap[string, *Node]
	edges *orderedmap.OrderedMap[string, *Edge]
	conns map[connection]string

	selection *Selection
	validator Validator
	onChange  func(Change)

	busy bool
}

// Option configures a Graph.
type Option func(*Graph)

// WithValidator sets the connection validator used by AddEdge.
func WithValidator(v Validator) Option {
	return func(g *Graph) { g.validator = v }
}

// OnChange registers the callback invoked after every committed mutation.
// Mutating the graph from inside the callback returns ErrReentrantMutation.
func OnChange(fn func(Change)) Option {
	return func(g *Graph) { g.onChange = fn }
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		nodes:     orderedmap.New[string, *Node](),
		edges:     orderedmap.New[string, *Edge](),
		conns:     make(map[connection]string),
		selection: newSelection(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Graph) begin() error {
	if g.busy {
		return ErrReentrantMutation
	}
	g.busy = true
	return nil
}

func (g *Graph) end(c *Change) {
	defer func() { g.busy = false }()
	if g.onChange != nil && !c.Empty() {
		g.onChange(*c)
	}
}

// --- Mutations ---

// AddNode inserts a node and returns its id. An empty id is generated.
func (g *Graph) AddNode(n Node) (string, error) {
	if err := g.begin(); err != nil {
		return "", err
	}
	var c Change
	defer g.end(&c)

	if err := g.checkNode(n); err != nil {
		return "", err
	}
	if n.ID == "" {
		n.ID = typeid.NewNodeID()
	}
	if _, exists := g.nodes.Get(n.ID); exists {
		return "", fmt.Errorf("%w: node %s", ErrDuplicateID, n.ID)
	}

	g.insertNode(n)
	c.NodesAdded = []string{n.ID}
	if n.Selected {
		c.Selection = true
	}
	return n.ID, nil
}

func (g *Graph) checkNode(n Node) error {
	if n.Type == "" {
		return ErrEmptyType
	}
	if !n.Position.IsFinite() {
		return fmt.Errorf("%w: node %s position", ErrInvalidGeometry, n.ID)
	}
	if n.Size != nil && !validSize(*n.Size) {
		return fmt.Errorf("%w: node %s size", ErrInvalidGeometry, n.ID)
	}
	return nil
}

func (g *Graph) insertNode(n Node) {
	stored := cloneNode(&n)
	stored.Selected = false
	g.nodes.Set(stored.ID, &stored)
	if n.Selected {
		g.selection.nodes[n.ID] = struct{}{}
	}
}

// MoveNode sets a node's top-left position. Moving to the current position is a no-op.
func (g *Graph) MoveNode(id string, pos geom.Point) error {
	if err := g.begin(); err != nil {
		return err
	}
	var c Change
	defer g.end(&c)

	n, ok := g.nodes.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if !pos.IsFinite() {
		return fmt.Errorf("%w: node %s position", ErrInvalidGeometry, id)
	}
	if n.Position == pos {
		return nil
	}
	n.Position = pos
	c.NodesUpdated = []string{id}
	return nil
}

// ResizeNode sets an explicit size on a node.
func (g *Graph) ResizeNode(id string, size geom.Size) error {
	if err := g.begin(); err != nil {
		return err
	}
	var c Change
	defer g.end(&c)

	n, ok := g.nodes.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if !validSize(size) {
		return fmt.Errorf("%w: node %s size", ErrInvalidGeometry, id)
	}
	if n.Size != nil && *n.Size == size {
		return nil
	}
	n.Size = &size
	c.NodesUpdated = []string{id}
	return nil
}

// SetNodeData replaces a node's opaque payload.
func (g *Graph) SetNodeData(id string, data json.RawMessage) error {
	if err := g.begin(); err != nil {
		return err
	}
	var c Change
	defer g.end(&c)

	n, ok := g.nodes.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if bytes.Equal(n.Data, data) {
		return nil
	}
	n.Data = cloneRaw(data)
	c.NodesUpdated = []string{id}
	return nil
}

// RemoveNode deletes a node and every edge that references it.
func (g *Graph) RemoveNode(id string) error {
	if err := g.begin(); err != nil {
		return err
	}
	var c Change
	defer g.end(&c)

	if _, ok := g.nodes.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	c.EdgesRemoved = g.removeEdgesTouching(id)
	g.nodes.Delete(id)
	c.NodesRemoved = []string{id}

	if _, sel := g.selection.nodes[id]; sel {
		delete(g.selection.nodes, id)
		c.Selection = true
	}
	for _, eid := range c.EdgesRemoved {
		if _, sel := g.selection.edges[eid]; sel {
			delete(g.selection.edges, eid)
			c.Selection = true
		}
	}
	return nil
}

func (g *Graph) removeEdgesTouching(nodeID string) []string {
	var doomed []string
	for pair := g.edges.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Touches(nodeID) {
			doomed = append(doomed, pair.Key)
		}
	}
	for _, eid := range doomed {
		g.deleteEdge(eid)
	}
	return doomed
}

// AddEdge validates a candidate edge and inserts it. An empty id is derived
// from the endpoints. Errors: ErrDuplicateID, ErrUnknownNodeReference or a
// *ValidationError.
func (g *Graph) AddEdge(e Edge) (string, error) {
	if err := g.begin(); err != nil {
		return "", err
	}
	var c Change
	defer g.end(&c)

	if e.ID == "" {
		e.ID = g.newEdgeID(e)
	}
	if err := g.checkEdge(e); err != nil {
		return "", err
	}

	g.insertEdge(e)
	c.EdgesAdded = []string{e.ID}
	if e.Selected {
		c.Selection = true
	}
	return e.ID, nil
}

// newEdgeID derives the readable id for e, falling back to a typeid when
// another edge already holds it.
func (g *Graph) newEdgeID(e Edge) string {
	id := DefaultEdgeID(e.Source, e.Target)
	if _, taken := g.edges.Get(id); taken {
		return typeid.NewEdgeID()
	}
	return id
}

// checkEdge reports a repeated handle pair as DuplicateConnection even when
// the edge also reuses an existing id.
func (g *Graph) checkEdge(e Edge) error {
	if g.HasConnection(e.Source, e.Target) {
		return g.validator.Validate(e, g)
	}
	if _, exists := g.edges.Get(e.ID); exists {
		return fmt.Errorf("%w: edge %s", ErrDuplicateID, e.ID)
	}
	for _, ref := range []HandleRef{e.Source, e.Target} {
		if _, ok := g.nodes.Get(ref.NodeID); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownNodeReference, ref.NodeID)
		}
	}
	return g.validator.Validate(e, g)
}

func (g *Graph) insertEdge(e Edge) {
	stored := cloneEdge(&e)
	stored.Selected = false
	g.edges.Set(stored.ID, &stored)
	g.conns[connection{source: e.Source, target: e.Target}] = e.ID
	if e.Selected {
		g.selection.edges[e.ID] = struct{}{}
	}
}

// RemoveEdge deletes a single edge.
func (g *Graph) RemoveEdge(id string) error {
	if err := g.begin(); err != nil {
		return err
	}
	var c Change
	defer g.end(&c)

	if _, ok := g.edges.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
	}
	g.deleteEdge(id)
	c.EdgesRemoved = []string{id}
	if _, sel := g.selection.edges[id]; sel {
		delete(g.selection.edges, id)
		c.Selection = true
	}
	return nil
}

func (g *Graph) deleteEdge(id string) {
	e, ok := g.edges.Delete(id)
	if !ok {
		return
	}
	delete(g.conns, connection{source: e.Source, target: e.Target})
}

// Load replaces the whole graph with the snapshot. Every node and edge goes
// through the same checks as AddNode and AddEdge; on any error the current
// graph is left untouched.
func (g *Graph) Load(s Snapshot) error {
	if err := g.begin(); err != nil {
		return err
	}
	var c Change
	defer g.end(&c)

	next := New(WithValidator(g.validator))
	for i, n := range s.Nodes {
		if err := next.checkNode(n); err != nil {
			return fmt.Errorf("node %d: %w", i, err)
		}
		if n.ID == "" {
			n.ID = typeid.NewNodeID()
		}
		if _, exists := next.nodes.Get(n.ID); exists {
			return fmt.Errorf("node %d: %w: %s", i, ErrDuplicateID, n.ID)
		}
		next.insertNode(n)
	}
	for i, e := range s.Edges {
		if e.ID == "" {
			e.ID = next.newEdgeID(e)
		}
		if err := next.checkEdge(e); err != nil {
			return fmt.Errorf("edge %d: %w", i, err)
		}
		next.insertEdge(e)
	}

	g.nodes, g.edges, g.conns, g.selection = next.nodes, next.edges, next.conns, next.selection
	c.Reset = true
	c.Selection = true
	return nil
}

// Clear removes every node and edge.
func (g *Graph) Clear() error {
	return g.Load(Snapshot{})
}

// --- Queries ---

// Node returns a copy of the node.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes.Get(id)
	if !ok {
		return Node{}, false
	}
	out := cloneNode(n)
	out.Selected = g.selection.hasNode(id)
	return out, true
}

// Edge returns a copy of the edge.
func (g *Graph) Edge(id string) (Edge, bool) {
	e, ok := g.edges.Get(id)
	if !ok {
		return Edge{}, false
	}
	out := cloneEdge(e)
	out.Selected = g.selection.hasEdge(id)
	return out, true
}

// Nodes returns copies of all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, g.nodes.Len())
	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		n := cloneNode(pair.Value)
		n.Selected = g.selection.hasNode(pair.Key)
		out = append(out, n)
	}
	return out
}

// Edges returns copies of all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges.Len())
	for pair := g.edges.Oldest(); pair != nil; pair = pair.Next() {
		e := cloneEdge(pair.Value)
		e.Selected = g.selection.hasEdge(pair.Key)
		out = append(out, e)
	}
	return out
}

// EdgesOf returns the edges that reference nodeID.
func (g *Graph) EdgesOf(nodeID string) []Edge {
	var out []Edge
	for pair := g.edges.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Touches(nodeID) {
			out = append(out, cloneEdge(pair.Value))
		}
	}
	return out
}

func (g *Graph) NodeCount() int { return g.nodes.Len() }
func (g *Graph) EdgeCount() int { return g.edges.Len() }

// Snapshot returns a copy of the whole graph.
func (g *Graph) Snapshot() Snapshot {
	return Snapshot{Nodes: g.Nodes(), Edges: g.Edges()}
}

// NodeType returns the type key of a node.
func (g *Graph) NodeType(id string) (string, bool) {
	n, ok := g.nodes.Get(id)
	if !ok {
		return "", false
	}
	return n.Type, true
}

// HasConnection reports whether an edge with exactly this ordered handle pair exists.
func (g *Graph) HasConnection(source, target HandleRef) bool {
	_, ok := g.conns[connection{source: source, target: target}]
	return ok
}

// ValidateConnection runs the validator without inserting anything.
func (g *Graph) ValidateConnection(e Edge) error {
	for _, ref := range []HandleRef{e.Source, e.Target} {
		if _, ok := g.nodes.Get(ref.NodeID); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownNodeReference, ref.NodeID)
		}
	}
	return g.validator.Validate(e, g)
}

func validSize(s geom.Size) bool {
	return !s.IsEmpty() && geom.Pt(s.Width, s.Height).IsFinite()
}
