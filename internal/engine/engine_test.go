package engine

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyyve/flowcanvas/internal/geom"
	"github.com/hyyve/flowcanvas/internal/graph"
	"github.com/hyyve/flowcanvas/internal/interaction"
	"github.com/hyyve/flowcanvas/internal/nodetype"
	"github.com/hyyve/flowcanvas/internal/viewport"
)

func ref(node, handle string) graph.HandleRef {
	return graph.HandleRef{NodeID: node, HandleID: handle}
}

// newTestEngine has a trigger A at (0,0) and an llm B at (400,0).
func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e := New(opts...)
	_, err := e.AddNode(graph.Node{ID: "A", Type: "trigger", Position: geom.Pt(0, 0)})
	require.NoError(t, err)
	_, err = e.AddNode(graph.Node{ID: "B", Type: "llm", Position: geom.Pt(400, 0)})
	require.NoError(t, err)
	return e
}

func TestSubscribeReceivesEvents(t *testing.T) {
	e := newTestEngine(t)
	var events []Event
	cancel := e.Subscribe(func(ev Event) { events = append(events, ev) })

	_, err := e.AddEdge(graph.Edge{Source: ref("A", "out"), Target: ref("B", "in")})
	require.NoError(t, err)
	require.NoError(t, e.RemoveNode("A"))
	e.ZoomIn()

	require.Len(t, events, 3)
	assert.Equal(t, 1, events[0].EdgesAdded)
	assert.Equal(t, 1, events[1].NodesRemoved)
	assert.Equal(t, 1, events[1].EdgesRemoved)
	assert.Equal(t, []string{"A"}, events[1].IDs.NodesRemoved)
	assert.True(t, events[2].ViewportChanged)
	assert.InDelta(t, viewport.ZoomStep, events[2].Viewport.Zoom, 1e-9)

	cancel()
	require.NoError(t, e.MoveNode("B", geom.Pt(1, 1)))
	assert.Len(t, events, 3)
}

func TestSubscriberCancellingItselfDoesNotStarveOthers(t *testing.T) {
	e := newTestEngine(t)
	var first, second int
	var cancelFirst func()
	cancelFirst = e.Subscribe(func(Event) {
		first++
		cancelFirst()
	})
	e.Subscribe(func(Event) { second++ })

	require.NoError(t, e.MoveNode("A", geom.Pt(10, 10)))
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)

	require.NoError(t, e.MoveNode("A", geom.Pt(20, 20)))
	assert.Equal(t, 1, first, "a cancelled subscriber gets no more events")
	assert.Equal(t, 2, second)
}

func TestSubscriberCannotMutate(t *testing.T) {
	e := newTestEngine(t)
	var inner error
	e.Subscribe(func(ev Event) {
		if ev.NodesUpdated > 0 {
			inner = e.RemoveNode("B")
		}
	})
	require.NoError(t, e.MoveNode("A", geom.Pt(10, 10)))
	assert.ErrorIs(t, inner, graph.ErrReentrantMutation)
	assert.Len(t, e.Nodes(), 2)
}

func TestLayoutUsesDescriptors(t *testing.T) {
	e := newTestEngine(t)
	size := geom.Sz(300, 90)
	require.NoError(t, e.ResizeNode("B", size))
	_, err := e.AddEdge(graph.Edge{Source: ref("A", "out"), Target: ref("B", "in"), Type: "success", Data: json.RawMessage(`{"label":"ok"}`)})
	require.NoError(t, err)

	nodes, edges := e.Layout()
	require.Len(t, nodes, 2)
	assert.Equal(t, geom.Rect{X: 0, Y: 0, Width: 200, Height: 110}, nodes[0].Bounds)
	assert.Equal(t, geom.Rect{X: 400, Y: 0, Width: 300, Height: 90}, nodes[1].Bounds)

	require.Len(t, edges, 1)
	assert.Equal(t, EdgeColorSuccess, edges[0].Color)
	assert.Equal(t, "ok", edges[0].Label)
	assert.Equal(t, geom.Pt(200, 55), edges[0].Path.Source)
	assert.Equal(t, geom.Pt(400, 45), edges[0].Path.Target)
}

func TestUnknownTypeFallsBackAndWarnsOnce(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	e := New(WithLogger(logger))

	_, err := e.AddNode(graph.Node{ID: "X", Type: "retired_widget"})
	require.NoError(t, err)
	_, err = e.AddNode(graph.Node{ID: "Y", Type: "retired_widget", Position: geom.Pt(300, 0)})
	require.NoError(t, err)
	e.Render()
	e.Render()

	assert.Equal(t, 1, strings.Count(logs.String(), "unknown node type"))

	nodes, _ := e.Layout()
	require.Len(t, nodes, 2)
	assert.False(t, nodes[0].Known)
	assert.Equal(t, nodetype.Fallback.DefaultSize, geom.Sz(nodes[0].Bounds.Width, nodes[0].Bounds.Height))

	// Unknown handles anchor at the node centre, so edges still draw.
	_, err = e.AddEdge(graph.Edge{Source: ref("X", "out"), Target: ref("Y", "in")})
	require.NoError(t, err)
	_, edges := e.Layout()
	require.Len(t, edges, 1)
	assert.Equal(t, nodes[0].Bounds.Center(), edges[0].Path.Source)
}

func TestHitTest(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddEdge(graph.Edge{ID: "e1", Source: ref("A", "out"), Target: ref("B", "in")})
	require.NoError(t, err)

	tests := []struct {
		name string
		p    geom.Point
		want interaction.Target
	}{
		{"output handle", geom.Pt(201, 55), interaction.Target{Kind: interaction.TargetHandle, NodeID: "A", HandleID: "out", Role: nodetype.RoleOutput}},
		{"input handle", geom.Pt(400, 75), interaction.Target{Kind: interaction.TargetHandle, NodeID: "B", HandleID: "in", Role: nodetype.RoleInput}},
		{"node body", geom.Pt(100, 50), interaction.Target{Kind: interaction.TargetNode, NodeID: "A"}},
		{"edge", geom.Pt(300, 65), interaction.Target{Kind: interaction.TargetEdge, EdgeID: "e1"}},
		{"nothing", geom.Pt(300, 400), interaction.Target{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.HitTest(tt.p, 8))
		})
	}
}

func TestPointerConnectThroughEngine(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.PointerDown(interaction.PointerEvent{Point: geom.Pt(200, 55)}))
	require.Equal(t, interaction.ConnectingEdge, e.State())
	require.NoError(t, e.PointerMove(interaction.PointerEvent{Point: geom.Pt(398, 74)}))

	cmds := e.Render()
	last := cmds[len(cmds)-1]
	assert.Equal(t, "preview", last.Op)
	assert.Equal(t, EdgeColorSuccess, last.Stroke)

	require.NoError(t, e.PointerUp(interaction.PointerEvent{Point: geom.Pt(398, 74)}))
	edges := e.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, "edge-A-B-out-in", edges[0].ID)
}

func TestDropNodeCentresUnderPointer(t *testing.T) {
	e := New()
	e.SetViewport(viewport.Viewport{PanX: 100, PanY: 0, Zoom: 2})

	id, err := e.DropNode("start", geom.Pt(400, 200), nil)
	require.NoError(t, err)

	n, ok := e.Node(id)
	require.True(t, ok)
	// screen (400,200) is graph (100,100); start nodes are 100x60.
	assert.Equal(t, geom.Pt(50, 70), n.Position)
}

func TestFitViewFramesContent(t *testing.T) {
	e := newTestEngine(t, WithScreenSize(geom.Sz(1000, 500)))
	e.FitView()

	vp := e.Viewport()
	bounds := e.ContentBounds()
	screen := viewport.VisibleRect(vp, e.ScreenSize())
	assert.True(t, screen.ContainsRect(bounds), "%+v not inside %+v", bounds, screen)
	assert.InDelta(t, bounds.Center().X, screen.Center().X, 1e-6)
}

func TestZoomLimitsFromOptions(t *testing.T) {
	e := New(WithZoomLimits(viewport.Limits{Min: 0.5, Max: 1.5}))
	e.ZoomAt(geom.Pt(0, 0), 10)
	assert.Equal(t, 1.5, e.Viewport().Zoom)
	assert.Equal(t, viewport.Limits{Min: 0.5, Max: 1.5}, e.ZoomLimits())
}

func TestRenderOrder(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddEdge(graph.Edge{Source: ref("A", "out"), Target: ref("B", "in"), Data: json.RawMessage(`{"label":"next"}`)})
	require.NoError(t, err)
	require.NoError(t, e.SetSelection([]string{"B"}, nil))

	var ops []string
	for _, c := range e.Render() {
		ops = append(ops, c.Op+":"+c.ObjectID)
	}
	want := []string{
		"edge:edge-A-B-out-in",
		"label:edge-A-B-out-in",
		"node:A",
		"handle:A:out",
		"node:B",
		"handle:B:in",
		"handle:B:out",
	}
	assert.Empty(t, cmp.Diff(want, ops))

	out := e.RenderJSON()
	assert.True(t, json.Valid([]byte(out)))
	assert.Contains(t, out, `"selected":true`)
}

type recorder struct{ calls []string }

func (r *recorder) DrawEdge(v EdgeView) { r.calls = append(r.calls, "edge:"+v.Edge.ID) }
func (r *recorder) DrawNode(v NodeView) { r.calls = append(r.calls, "node:"+v.Node.ID) }

func TestPaint(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddEdge(graph.Edge{ID: "e1", Source: ref("A", "out"), Target: ref("B", "in")})
	require.NoError(t, err)

	var r recorder
	e.Paint(&r)
	assert.Equal(t, []string{"edge:e1", "node:A", "node:B"}, r.calls)
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddEdge(graph.Edge{ID: "e1", Source: ref("A", "out"), Target: ref("B", "in"), Type: "success"})
	require.NoError(t, err)

	data, err := e.SnapshotJSON()
	require.NoError(t, err)

	other := New()
	require.NoError(t, other.LoadJSON(data))
	assert.Empty(t, cmp.Diff(e.Snapshot(), other.Snapshot()))

	assert.Error(t, other.LoadJSON([]byte("{")))
}

func TestMinimap(t *testing.T) {
	e := newTestEngine(t, WithScreenSize(geom.Sz(800, 600)))
	p := e.Minimap(geom.Sz(200, 150))
	require.Len(t, p.Nodes, 2)
	assert.Greater(t, p.Scale, 0.0)

	e.MinimapNavigate(geom.Sz(200, 150), p.ToMinimap(geom.Pt(500, 60)))
	center := e.ScreenToGraph(geom.Pt(400, 300))
	assert.InDelta(t, 500, center.X, 1e-6)
	assert.InDelta(t, 60, center.Y, 1e-6)
}
