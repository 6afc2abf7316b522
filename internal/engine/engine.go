package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/hyyve/flowcanvas/internal/geom"
	"github.com/hyyve/flowcanvas/internal/graph"
	"github.com/hyyve/flowcanvas/internal/interaction"
	"github.com/hyyve/flowcanvas/internal/minimap"
	"github.com/hyyve/flowcanvas/internal/nodetype"
	"github.com/hyyve/flowcanvas/internal/viewport"
)

// Engine owns the state of one canvas: the graph, the node type registry,
// the viewport and the in-progress gesture. Each canvas gets its own Engine;
// there is no shared global state.
//
// Like the graph it wraps, an Engine must be driven from one goroutine.
type Engine struct {
	graph    *graph.Graph
	registry *nodetype.Registry
	ctrl     *interaction.Controller
	logger   *slog.Logger

	screen       geom.Size
	handleRadius float64

	subs    *orderedmap.OrderedMap[int, func(Event)]
	nextSub int

	// unknown node types already reported
	warned map[string]bool
}

type options struct {
	registry   *nodetype.Registry
	limits     viewport.Limits
	logger     *slog.Logger
	screen     geom.Size
	nodeLoops  bool
	handleSize float64
}

// Option configures an Engine.
type Option func(*options)

// WithRegistry sets the node type registry. The default has the builtin types.
func WithRegistry(r *nodetype.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithZoomLimits sets the zoom range.
func WithZoomLimits(l viewport.Limits) Option {
	return func(o *options) { o.limits = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithScreenSize sets the initial size of the canvas element in pixels.
func WithScreenSize(s geom.Size) Option {
	return func(o *options) { o.screen = s }
}

// WithNodeLoops allows edges between two handles of the same node.
func WithNodeLoops(allow bool) Option {
	return func(o *options) { o.nodeLoops = allow }
}

// WithHandleRadius sets the handle hit radius in screen pixels.
func WithHandleRadius(r float64) Option {
	return func(o *options) { o.handleSize = r }
}

// New creates an engine with an empty graph.
func New(opts ...Option) *Engine {
	o := options{
		limits:     viewport.DefaultLimits(),
		logger:     slog.Default(),
		screen:     geom.Sz(1280, 720),
		handleSize: interaction.DefaultHandleRadius,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = nodetype.NewBuiltinRegistry()
	}

	e := &Engine{
		registry:     o.registry,
		logger:       o.logger,
		screen:       o.screen,
		handleRadius: o.handleSize,
		subs:         orderedmap.New[int, func(Event)](),
		warned:       make(map[string]bool),
	}
	e.graph = graph.New(
		graph.WithValidator(graph.Validator{Roles: o.registry, AllowNodeLoops: o.nodeLoops}),
		graph.OnChange(e.onGraphChange),
	)
	e.ctrl = interaction.New(e.graph, e,
		interaction.WithLimits(o.limits),
		interaction.WithLogger(o.logger),
		interaction.WithHandleRadius(o.handleSize),
		interaction.OnViewportChange(e.onViewportChange),
	)
	return e
}

// --- Subscriptions ---

// Subscribe registers fn to be called after every committed change. The
// returned func removes the subscription. Mutating the graph from inside fn
// fails with graph.ErrReentrantMutation.
func (e *Engine) Subscribe(fn func(Event)) (cancel func()) {
	id := e.nextSub
	e.nextSub++
	e.subs.Set(id, fn)
	return func() { e.subs.Delete(id) }
}

// emit calls the subscribers registered when the event was raised, so a
// subscriber cancelling itself or another one does not cut the walk short.
func (e *Engine) emit(ev Event) {
	subs := make([]func(Event), 0, e.subs.Len())
	for pair := e.subs.Oldest(); pair != nil; pair = pair.Next() {
		subs = append(subs, pair.Value)
	}
	for _, fn := range subs {
		fn(ev)
	}
}

func (e *Engine) onGraphChange(c graph.Change) {
	for _, id := range c.NodesAdded {
		if n, ok := e.graph.Node(id); ok {
			e.descriptor(n.Type)
		}
	}
	if c.Reset {
		for _, n := range e.graph.Nodes() {
			e.descriptor(n.Type)
		}
	}
	e.emit(newGraphEvent(c, e.ctrl.Viewport()))
}

func (e *Engine) onViewportChange(v viewport.Viewport) {
	e.emit(Event{ViewportChanged: true, Viewport: v})
}

// --- Commands (host → engine) ---

// AddNode inserts a node. Unknown types are accepted and drawn with the
// fallback descriptor.
func (e *Engine) AddNode(n graph.Node) (string, error) {
	return e.graph.AddNode(n)
}

// DropNode places a new node of type typ centred under a screen point, the way
// a palette drop does.
func (e *Engine) DropNode(typ string, at geom.Point, data json.RawMessage) (string, error) {
	d, _ := e.descriptor(typ)
	p := viewport.ScreenToGraph(at, e.ctrl.Viewport())
	pos := geom.Pt(p.X-d.DefaultSize.Width/2, p.Y-d.DefaultSize.Height/2)
	return e.graph.AddNode(graph.Node{Type: typ, Position: pos, Data: data})
}

func (e *Engine) MoveNode(id string, pos geom.Point) error { return e.graph.MoveNode(id, pos) }

func (e *Engine) ResizeNode(id string, size geom.Size) error { return e.graph.ResizeNode(id, size) }

func (e *Engine) SetNodeData(id string, data json.RawMessage) error {
	return e.graph.SetNodeData(id, data)
}

func (e *Engine) RemoveNode(id string) error { return e.graph.RemoveNode(id) }

// AddEdge validates and inserts an edge.
func (e *Engine) AddEdge(edge graph.Edge) (string, error) { return e.graph.AddEdge(edge) }

func (e *Engine) RemoveEdge(id string) error { return e.graph.RemoveEdge(id) }

// ValidateConnection previews whether an edge would be accepted.
func (e *Engine) ValidateConnection(edge graph.Edge) error {
	return e.graph.ValidateConnection(edge)
}

func (e *Engine) SetSelection(nodeIDs, edgeIDs []string) error {
	return e.graph.SetSelection(nodeIDs, edgeIDs)
}

func (e *Engine) ClearSelection() error { return e.graph.ClearSelection() }

func (e *Engine) RemoveSelected() error { return e.graph.RemoveSelected() }

// Load replaces the graph with s.
func (e *Engine) Load(s graph.Snapshot) error { return e.graph.Load(s) }

// LoadJSON replaces the graph with a JSON snapshot.
func (e *Engine) LoadJSON(data []byte) error {
	var s graph.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	return e.graph.Load(s)
}

func (e *Engine) Clear() error { return e.graph.Clear() }

// --- Viewport ---

func (e *Engine) Viewport() viewport.Viewport { return e.ctrl.Viewport() }

func (e *Engine) SetViewport(v viewport.Viewport) { e.ctrl.SetViewport(v) }

func (e *Engine) ZoomLimits() viewport.Limits { return e.ctrl.Limits() }

// ScreenSize is the size of the canvas element in pixels.
func (e *Engine) ScreenSize() geom.Size { return e.screen }

// SetScreenSize records a resize of the canvas element.
func (e *Engine) SetScreenSize(s geom.Size) {
	if s.IsEmpty() {
		return
	}
	e.screen = s
}

func (e *Engine) PanBy(delta geom.Point) { e.ctrl.PanBy(delta) }

func (e *Engine) ZoomAt(focal geom.Point, factor float64) { e.ctrl.ZoomAt(focal, factor) }

func (e *Engine) ZoomIn() { e.ctrl.ZoomIn(e.screen) }

func (e *Engine) ZoomOut() { e.ctrl.ZoomOut(e.screen) }

// FitView frames every node with the default padding.
func (e *Engine) FitView() {
	e.ctrl.FitView(e.ContentBounds(), e.screen, viewport.DefaultFitPadding)
}

// ScreenToGraph converts a screen point with the current viewport.
func (e *Engine) ScreenToGraph(p geom.Point) geom.Point {
	return viewport.ScreenToGraph(p, e.ctrl.Viewport())
}

// GraphToScreen converts a graph point with the current viewport.
func (e *Engine) GraphToScreen(p geom.Point) geom.Point {
	return viewport.GraphToScreen(p, e.ctrl.Viewport())
}

// --- Input ---

func (e *Engine) PointerDown(ev interaction.PointerEvent) error { return e.ctrl.PointerDown(ev) }

func (e *Engine) PointerMove(ev interaction.PointerEvent) error { return e.ctrl.PointerMove(ev) }

func (e *Engine) PointerUp(ev interaction.PointerEvent) error { return e.ctrl.PointerUp(ev) }

func (e *Engine) Wheel(at geom.Point, deltaY float64, mode viewport.WheelMode) {
	e.ctrl.Wheel(at, deltaY, mode)
}

func (e *Engine) Pinch(at geom.Point, scale float64) { e.ctrl.Pinch(at, scale) }

func (e *Engine) KeyDown(key string) error { return e.ctrl.KeyDown(key) }

// State returns the active gesture.
func (e *Engine) State() interaction.State { return e.ctrl.State() }

// Preview reports the in-progress connection, if any.
func (e *Engine) Preview() (interaction.ConnectionPreview, bool) { return e.ctrl.Preview() }

// --- Queries (engine → host) ---

func (e *Engine) Node(id string) (graph.Node, bool) { return e.graph.Node(id) }

func (e *Engine) Edge(id string) (graph.Edge, bool) { return e.graph.Edge(id) }

func (e *Engine) Nodes() []graph.Node { return e.graph.Nodes() }

func (e *Engine) Edges() []graph.Edge { return e.graph.Edges() }

func (e *Engine) Selection() graph.SelectionState { return e.graph.Selection() }

func (e *Engine) Snapshot() graph.Snapshot { return e.graph.Snapshot() }

// SnapshotJSON serializes the graph.
func (e *Engine) SnapshotJSON() ([]byte, error) {
	return json.Marshal(e.graph.Snapshot())
}

func (e *Engine) Registry() *nodetype.Registry { return e.registry }

// Minimap projects the graph into a minimap of the given size.
func (e *Engine) Minimap(size geom.Size) minimap.Projection {
	nodes, _ := e.Layout()
	rects := make([]geom.Rect, len(nodes))
	for i, n := range nodes {
		rects[i] = n.Bounds
	}
	return minimap.Project(rects, e.ctrl.Viewport(), e.screen, size, minimap.DefaultPadding)
}

// MinimapNavigate centres the viewport on the graph point under a minimap click.
func (e *Engine) MinimapNavigate(size geom.Size, at geom.Point) {
	p := e.Minimap(size)
	e.ctrl.SetViewport(p.CenterOn(at, e.ctrl.Viewport(), e.screen))
}
