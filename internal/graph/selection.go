package graph

// Selection is the transient set of selected nodes and edges.
type Selection struct {
	nodes map[string]struct{}
	edges map[string]struct{}
}

func newSelection() *Selection {
	return &Selection{
		nodes: make(map[string]struct{}),
		edges: make(map[string]struct{}),
	}
}

func (s *Selection) hasNode(id string) bool {
	_, ok := s.nodes[id]
	return ok
}

func (s *Selection) hasEdge(id string) bool {
	_, ok := s.edges[id]
	return ok
}

func (s *Selection) empty() bool {
	return len(s.nodes) == 0 && len(s.edges) == 0
}

// SelectionState lists the selected ids in graph order.
type SelectionState struct {
	Nodes []string `json:"nodes"`
	Edges []string `json:"edges"`
}

// Selection returns the selected ids in insertion order.
func (g *Graph) Selection() SelectionState {
	st := SelectionState{Nodes: []string{}, Edges: []string{}}
	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		if g.selection.hasNode(pair.Key) {
			st.Nodes = append(st.Nodes, pair.Key)
		}
	}
	for pair := g.edges.Oldest(); pair != nil; pair = pair.Next() {
		if g.selection.hasEdge(pair.Key) {
			st.Edges = append(st.Edges, pair.Key)
		}
	}
	return st
}

// IsNodeSelected reports whether a node is in the selection.
func (g *Graph) IsNodeSelected(id string) bool {
	return g.selection.hasNode(id)
}

// SetSelection replaces the selection. Unknown ids are ignored.
func (g *Graph) SetSelection(nodeIDs, edgeIDs []string) error {
	if err := g.begin(); err != nil {
		return err
	}
	var c Change
	defer g.end(&c)

	next := newSelection()
	for _, id := range nodeIDs {
		if _, ok := g.nodes.Get(id); ok {
			next.nodes[id] = struct{}{}
		}
	}
	for _, id := range edgeIDs {
		if _, ok := g.edges.Get(id); ok {
			next.edges[id] = struct{}{}
		}
	}
	if sameSet(next.nodes, g.selection.nodes) && sameSet(next.edges, g.selection.edges) {
		return nil
	}
	g.selection = next
	c.Selection = true
	return nil
}

// SelectNode selects a node. With additive set the node is toggled and the rest
// of the selection is kept; otherwise it replaces the selection.
func (g *Graph) SelectNode(id string, additive bool) error {
	if _, ok := g.nodes.Get(id); !ok {
		return ErrNodeNotFound
	}
	if !additive {
		return g.SetSelection([]string{id}, nil)
	}
	st := g.Selection()
	if g.selection.hasNode(id) {
		return g.SetSelection(without(st.Nodes, id), st.Edges)
	}
	return g.SetSelection(append(st.Nodes, id), st.Edges)
}

// SelectEdge selects an edge, toggling it when additive is set.
func (g *Graph) SelectEdge(id string, additive bool) error {
	if _, ok := g.edges.Get(id); !ok {
		return ErrEdgeNotFound
	}
	if !additive {
		return g.SetSelection(nil, []string{id})
	}
	st := g.Selection()
	if g.selection.hasEdge(id) {
		return g.SetSelection(st.Nodes, without(st.Edges, id))
	}
	return g.SetSelection(st.Nodes, append(st.Edges, id))
}

// ClearSelection deselects everything.
func (g *Graph) ClearSelection() error {
	if g.selection.empty() {
		return nil
	}
	return g.SetSelection(nil, nil)
}

// RemoveSelected deletes the selected edges, then the selected nodes (cascading).
func (g *Graph) RemoveSelected() error {
	st := g.Selection()
	for _, id := range st.Edges {
		if err := g.RemoveEdge(id); err != nil {
			return err
		}
	}
	for _, id := range st.Nodes {
		if err := g.RemoveNode(id); err != nil {
			return err
		}
	}
	return nil
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
