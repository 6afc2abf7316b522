package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyyve/flowcanvas/internal/geom"
	"github.com/hyyve/flowcanvas/internal/graph"
	"github.com/hyyve/flowcanvas/internal/nodetype"
	"github.com/hyyve/flowcanvas/internal/viewport"
)

// fakeScene lays every node out as a 100x50 box with "in" on the left and
// "out" on the right.
type fakeScene struct {
	g *graph.Graph
}

var boxSize = geom.Sz(100, 50)

func (s fakeScene) bounds(n graph.Node) geom.Rect {
	return geom.RectAt(n.Position, boxSize)
}

func (s fakeScene) HitTest(p geom.Point, tol float64) Target {
	nodes := s.g.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		b := s.bounds(n)
		for _, h := range []struct {
			id   string
			role nodetype.Role
			at   geom.Point
		}{
			{nodetype.HandleIn, nodetype.RoleInput, geom.Pt(b.X, b.Y+b.Height/2)},
			{nodetype.HandleOut, nodetype.RoleOutput, geom.Pt(b.X+b.Width, b.Y+b.Height/2)},
		} {
			if p.Distance(h.at) <= tol {
				return Target{Kind: TargetHandle, NodeID: n.ID, HandleID: h.id, Role: h.role}
			}
		}
		if b.Contains(p) {
			return Target{Kind: TargetNode, NodeID: n.ID}
		}
	}
	return Target{}
}

func (s fakeScene) NodesWithin(r geom.Rect) []string {
	var out []string
	for _, n := range s.g.Nodes() {
		if r.ContainsRect(s.bounds(n)) {
			out = append(out, n.ID)
		}
	}
	return out
}

func (s fakeScene) HandleAnchor(h graph.HandleRef) (geom.Point, bool) {
	n, ok := s.g.Node(h.NodeID)
	if !ok {
		return geom.Point{}, false
	}
	b := s.bounds(n)
	if h.HandleID == nodetype.HandleIn {
		return geom.Pt(b.X, b.Y+b.Height/2), true
	}
	return geom.Pt(b.X+b.Width, b.Y+b.Height/2), true
}

func setup(t *testing.T, opts ...Option) (*Controller, *graph.Graph) {
	t.Helper()
	g := graph.New(graph.WithValidator(graph.Validator{Roles: nodetype.NewBuiltinRegistry()}))
	for _, n := range []graph.Node{
		{ID: "A", Type: "action", Position: geom.Pt(0, 0)},
		{ID: "B", Type: "action", Position: geom.Pt(300, 0)},
		{ID: "C", Type: "action", Position: geom.Pt(0, 300)},
	} {
		_, err := g.AddNode(n)
		require.NoError(t, err)
	}
	return New(g, fakeScene{g: g}, opts...), g
}

func at(x, y float64) PointerEvent {
	return PointerEvent{Point: geom.Pt(x, y)}
}

func shiftAt(x, y float64) PointerEvent {
	return PointerEvent{Point: geom.Pt(x, y), Mods: Modifiers{Shift: true}}
}

func position(t *testing.T, g *graph.Graph, id string) geom.Point {
	t.Helper()
	n, ok := g.Node(id)
	require.True(t, ok)
	return n.Position
}

func TestPanOnEmptyCanvas(t *testing.T) {
	var seen []viewport.Viewport
	c, _ := setup(t, OnViewportChange(func(v viewport.Viewport) { seen = append(seen, v) }))
	c.SetViewport(viewport.Viewport{Zoom: 2})

	require.NoError(t, c.PointerDown(at(500, 500)))
	assert.Equal(t, Panning, c.State())
	require.NoError(t, c.PointerMove(at(540, 520)))
	require.NoError(t, c.PointerUp(at(540, 520)))

	assert.Equal(t, Idle, c.State())
	assert.Equal(t, viewport.Viewport{PanX: 20, PanY: 10, Zoom: 2}, c.Viewport())
	assert.Len(t, seen, 2)
}

func TestClickOnEmptyCanvasClearsSelection(t *testing.T) {
	c, g := setup(t)
	require.NoError(t, g.SelectNode("A", false))

	require.NoError(t, c.PointerDown(at(800, 800)))
	require.NoError(t, c.PointerUp(at(800, 800)))

	assert.Empty(t, g.Selection().Nodes)
}

func TestDragNode(t *testing.T) {
	c, g := setup(t)
	c.SetViewport(viewport.Viewport{Zoom: 2})

	require.NoError(t, c.PointerDown(at(20, 20))) // graph (10,10) on A
	assert.Equal(t, DraggingNode, c.State())
	assert.True(t, g.IsNodeSelected("A"))

	require.NoError(t, c.PointerMove(at(120, 60)))
	require.NoError(t, c.PointerUp(at(120, 60)))

	assert.Equal(t, geom.Pt(50, 20), position(t, g, "A"))
	assert.Equal(t, Idle, c.State())
}

func TestDragMovesWholeSelection(t *testing.T) {
	c, g := setup(t)
	require.NoError(t, g.SetSelection([]string{"A", "B"}, nil))

	require.NoError(t, c.PointerDown(at(10, 10)))
	require.NoError(t, c.PointerMove(at(30, 50)))
	require.NoError(t, c.PointerUp(at(30, 50)))

	assert.Equal(t, geom.Pt(20, 40), position(t, g, "A"))
	assert.Equal(t, geom.Pt(320, 40), position(t, g, "B"))
	assert.Equal(t, geom.Pt(0, 300), position(t, g, "C"))
}

func TestEscapeRestoresDraggedNodes(t *testing.T) {
	c, g := setup(t)
	require.NoError(t, g.SetSelection([]string{"A", "C"}, nil))

	require.NoError(t, c.PointerDown(at(10, 10)))
	require.NoError(t, c.PointerMove(at(200, 200)))
	require.NoError(t, c.KeyDown(KeyEscape))

	assert.Equal(t, Idle, c.State())
	assert.Equal(t, geom.Pt(0, 0), position(t, g, "A"))
	assert.Equal(t, geom.Pt(0, 300), position(t, g, "C"))

	// The pointer up after a cancel is a no-op.
	require.NoError(t, c.PointerUp(at(200, 200)))
	assert.Equal(t, geom.Pt(0, 0), position(t, g, "A"))
}

func TestEscapeRestoresViewport(t *testing.T) {
	c, _ := setup(t)
	start := c.Viewport()

	require.NoError(t, c.PointerDown(at(500, 500)))
	require.NoError(t, c.PointerMove(at(600, 650)))
	require.NoError(t, c.KeyDown(KeyEscape))

	assert.Equal(t, start, c.Viewport())
}

func TestEscapeKeepsZoomAppliedWhilePanning(t *testing.T) {
	c, _ := setup(t)

	require.NoError(t, c.PointerDown(at(500, 500)))
	require.NoError(t, c.PointerMove(at(600, 650)))
	c.Pinch(geom.Pt(400, 300), 1.5)
	zoomed := c.Viewport()
	require.NoError(t, c.KeyDown(KeyEscape))

	got := c.Viewport()
	assert.Equal(t, Idle, c.State())
	assert.InDelta(t, 1.5, got.Zoom, 1e-9)
	assert.InDelta(t, zoomed.PanX-100, got.PanX, 1e-9)
	assert.InDelta(t, zoomed.PanY-150, got.PanY, 1e-9)
}

func TestEscapeWhileIdleDoesNothing(t *testing.T) {
	c, g := setup(t)
	require.NoError(t, g.SelectNode("B", false))
	c.SetViewport(viewport.Viewport{PanX: 30, PanY: -20, Zoom: 1.2})
	before := c.Viewport()

	require.NoError(t, c.KeyDown(KeyEscape))

	assert.Equal(t, Idle, c.State())
	assert.Equal(t, before, c.Viewport())
	assert.Equal(t, []string{"B"}, g.Selection().Nodes)
	assert.Equal(t, geom.Pt(300, 0), position(t, g, "B"))
}

func TestConnectOutputToInput(t *testing.T) {
	c, g := setup(t)

	require.NoError(t, c.PointerDown(at(100, 25))) // A.out
	assert.Equal(t, ConnectingEdge, c.State())

	require.NoError(t, c.PointerMove(at(200, 100)))
	p, ok := c.Preview()
	require.True(t, ok)
	assert.Equal(t, geom.Pt(100, 25), p.From)
	assert.Equal(t, geom.Pt(200, 100), p.To)
	assert.Nil(t, p.Target)

	require.NoError(t, c.PointerMove(at(302, 24))) // near B.in
	p, _ = c.Preview()
	require.NotNil(t, p.Target)
	assert.True(t, p.Valid)
	assert.Equal(t, geom.Pt(300, 25), p.To)

	require.NoError(t, c.PointerUp(at(302, 24)))
	edges := g.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, graph.HandleRef{NodeID: "A", HandleID: "out"}, edges[0].Source)
	assert.Equal(t, graph.HandleRef{NodeID: "B", HandleID: "in"}, edges[0].Target)
	_, ok = c.Preview()
	assert.False(t, ok)
}

func TestConnectFromInputIsReversed(t *testing.T) {
	c, g := setup(t)

	require.NoError(t, c.PointerDown(at(300, 25))) // B.in
	require.NoError(t, c.PointerUp(at(100, 25)))   // A.out

	edges := g.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, "A", edges[0].Source.NodeID)
	assert.Equal(t, "B", edges[0].Target.NodeID)
}

func TestConnectPreviewShowsRejection(t *testing.T) {
	c, g := setup(t)

	require.NoError(t, c.PointerDown(at(100, 25))) // A.out
	require.NoError(t, c.PointerMove(at(400, 25))) // B.out
	p, _ := c.Preview()
	assert.False(t, p.Valid)
	assert.Equal(t, graph.ReasonIncompatibleHandles, p.Reason)

	err := c.PointerUp(at(400, 25))
	assert.ErrorIs(t, err, graph.ErrValidationRejected)
	assert.Empty(t, g.Edges())
	assert.Equal(t, Idle, c.State())
}

func TestConnectDroppedElsewhereIsDiscarded(t *testing.T) {
	c, g := setup(t)

	require.NoError(t, c.PointerDown(at(100, 25)))
	require.NoError(t, c.PointerUp(at(700, 700)))

	assert.Empty(t, g.Edges())
	assert.Equal(t, Idle, c.State())
}

func TestEscapeCancelsConnection(t *testing.T) {
	c, g := setup(t)

	require.NoError(t, c.PointerDown(at(100, 25))) // A.out
	require.NoError(t, c.PointerMove(at(302, 24))) // over B.in
	p, ok := c.Preview()
	require.True(t, ok)
	require.True(t, p.Valid)

	require.NoError(t, c.KeyDown(KeyEscape))

	assert.Equal(t, Idle, c.State())
	assert.Empty(t, g.Edges())
	_, ok = c.Preview()
	assert.False(t, ok)

	// Releasing over the handle afterwards connects nothing.
	require.NoError(t, c.PointerUp(at(302, 24)))
	assert.Empty(t, g.Edges())
}

func TestBoxSelect(t *testing.T) {
	c, g := setup(t)
	require.NoError(t, g.SelectNode("C", false))

	require.NoError(t, c.PointerDown(shiftAt(-10, -10)))
	assert.Equal(t, BoxSelecting, c.State())
	require.NoError(t, c.PointerMove(shiftAt(450, 60)))
	r, ok := c.Marquee()
	require.True(t, ok)
	assert.Equal(t, geom.Rect{X: -10, Y: -10, Width: 460, Height: 70}, r)
	require.NoError(t, c.PointerUp(shiftAt(450, 60)))

	assert.Equal(t, []string{"A", "B"}, g.Selection().Nodes)
}

func TestBoxSelectRequiresFullContainment(t *testing.T) {
	c, g := setup(t)

	require.NoError(t, c.PointerDown(shiftAt(-10, -10)))
	require.NoError(t, c.PointerUp(shiftAt(350, 60)))

	assert.Equal(t, []string{"A"}, g.Selection().Nodes)
}

func TestEscapeRestoresSelection(t *testing.T) {
	c, g := setup(t)
	require.NoError(t, g.SelectNode("C", false))

	require.NoError(t, c.PointerDown(shiftAt(-10, -10)))
	require.NoError(t, c.PointerMove(shiftAt(450, 60)))
	require.NoError(t, c.KeyDown(KeyEscape))

	assert.Equal(t, []string{"C"}, g.Selection().Nodes)
}

func TestShiftClickTogglesNode(t *testing.T) {
	c, g := setup(t)
	require.NoError(t, g.SelectNode("A", false))

	require.NoError(t, c.PointerDown(shiftAt(310, 10)))
	require.NoError(t, c.PointerUp(shiftAt(310, 10)))
	assert.Equal(t, []string{"A", "B"}, g.Selection().Nodes)

	require.NoError(t, c.PointerDown(shiftAt(10, 10)))
	require.NoError(t, c.PointerUp(shiftAt(10, 10)))
	assert.Equal(t, []string{"B"}, g.Selection().Nodes)
}

func TestWheelZoomsExceptWhileDragging(t *testing.T) {
	c, _ := setup(t)

	c.Wheel(geom.Pt(400, 300), -500, viewport.WheelPixel)
	assert.InDelta(t, 2.0, c.Viewport().Zoom, 1e-9)

	c.Wheel(geom.Pt(400, 300), 10000, viewport.WheelPixel)
	assert.InDelta(t, 0.1, c.Viewport().Zoom, 1e-9)

	c.SetViewport(viewport.Identity())
	before := c.Viewport()
	require.NoError(t, c.PointerDown(at(10, 10)))
	require.Equal(t, DraggingNode, c.State())
	c.Wheel(geom.Pt(400, 300), -100, viewport.WheelPixel)
	c.Pinch(geom.Pt(400, 300), 1.5)
	assert.Equal(t, before, c.Viewport())
}

func TestPinchWhilePanning(t *testing.T) {
	c, _ := setup(t)
	require.NoError(t, c.PointerDown(at(500, 500)))
	c.Pinch(geom.Pt(400, 300), 1.5)
	assert.InDelta(t, 1.5, c.Viewport().Zoom, 1e-9)
	assert.Equal(t, Panning, c.State())
}

func TestDeleteKeyRemovesSelection(t *testing.T) {
	c, g := setup(t)
	_, err := g.AddEdge(graph.Edge{Source: graph.HandleRef{NodeID: "A", HandleID: "out"}, Target: graph.HandleRef{NodeID: "B", HandleID: "in"}})
	require.NoError(t, err)
	require.NoError(t, g.SelectNode("A", false))

	require.NoError(t, c.PointerDown(at(500, 500)))
	require.NoError(t, c.KeyDown(KeyDelete))
	assert.Equal(t, 3, g.NodeCount(), "ignored mid-gesture")
	require.NoError(t, c.PointerUp(at(500, 500)))

	require.NoError(t, g.SelectNode("A", false))
	require.NoError(t, c.KeyDown(KeyBackspace))
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
}

func TestSetViewportClamps(t *testing.T) {
	c, _ := setup(t, WithLimits(viewport.Limits{Min: 0.5, Max: 1.5}))
	c.SetViewport(viewport.Viewport{PanX: 3, Zoom: 10})
	assert.Equal(t, viewport.Viewport{PanX: 3, Zoom: 1.5}, c.Viewport())

	c.ZoomOut(geom.Sz(800, 600))
	assert.InDelta(t, 1.25, c.Viewport().Zoom, 1e-9)
	c.ZoomIn(geom.Sz(800, 600))
	assert.InDelta(t, 1.5, c.Viewport().Zoom, 1e-9)
}

func TestSecondaryButtonIgnored(t *testing.T) {
	c, _ := setup(t)
	require.NoError(t, c.PointerDown(PointerEvent{Point: geom.Pt(10, 10), Button: ButtonSecondary}))
	assert.Equal(t, Idle, c.State())

	require.NoError(t, c.PointerDown(PointerEvent{Point: geom.Pt(10, 10), Button: ButtonMiddle}))
	assert.Equal(t, Panning, c.State(), "middle button pans even over a node")
}
