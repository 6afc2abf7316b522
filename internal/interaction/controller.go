// Package interaction turns raw pointer, wheel and keyboard input into
// viewport changes and graph mutations.
//
// The Controller is a small state machine:
//
//	Idle ──down on canvas──▶ Panning
//	Idle ──down on canvas + shift──▶ BoxSelecting
//	Idle ──down on node──▶ DraggingNode
//	Idle ──down on handle──▶ ConnectingEdge
//
// pointer up returns to Idle and commits; Escape returns to Idle and rolls
// back whatever the gesture changed.
package interaction

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hyyve/flowcanvas/internal/geom"
	"github.com/hyyve/flowcanvas/internal/graph"
	"github.com/hyyve/flowcanvas/internal/nodetype"
	"github.com/hyyve/flowcanvas/internal/viewport"
)

// State is the current gesture.
type State int

const (
	Idle State = iota
	Panning
	DraggingNode
	ConnectingEdge
	BoxSelecting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	case DraggingNode:
		return "dragging-node"
	case ConnectingEdge:
		return "connecting-edge"
	case BoxSelecting:
		return "box-selecting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// DefaultHandleRadius is the handle hit radius in screen pixels.
const DefaultHandleRadius = 8

// clickSlop is how far, in screen pixels, a press may travel and still count as a click.
const clickSlop = 3

// Scene answers spatial queries in graph coordinates.
type Scene interface {
	// HitTest returns the topmost thing at p. tolerance is in graph units.
	HitTest(p geom.Point, tolerance float64) Target
	// NodesWithin returns the nodes whose bounds lie entirely inside r.
	NodesWithin(r geom.Rect) []string
	// HandleAnchor returns the graph position of a handle.
	HandleAnchor(h graph.HandleRef) (geom.Point, bool)
}

// Controller owns the viewport and the in-progress gesture of one canvas.
type Controller struct {
	graph  *graph.Graph
	scene  Scene
	logger *slog.Logger

	vp           viewport.Viewport
	limits       viewport.Limits
	handleRadius float64
	onViewport   func(viewport.Viewport)

	state State
	down  geom.Point
	last  geom.Point
	moved bool

	// Panning
	startViewport viewport.Viewport
	panned        geom.Point // graph units moved by the drag itself
	zoomedMidPan  bool

	// DraggingNode
	dragNode   string
	dragOffset geom.Point
	dragStart  map[string]geom.Point
	dragOrder  []string

	// ConnectingEdge
	connectFrom geom.Point
	connect     graph.HandleRef
	connectRole nodetype.Role
	preview     ConnectionPreview

	// BoxSelecting
	boxAnchor     geom.Point
	boxCurrent    geom.Point
	prevSelection graph.SelectionState
}

// Option configures a Controller.
type Option func(*Controller)

// WithLimits sets the zoom range.
func WithLimits(l viewport.Limits) Option {
	return func(c *Controller) { c.limits = l }
}

// WithHandleRadius sets the handle hit radius in screen pixels.
func WithHandleRadius(r float64) Option {
	return func(c *Controller) { c.handleRadius = r }
}

// WithLogger sets the logger used for gesture diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// OnViewportChange registers a callback invoked whenever the viewport changes.
func OnViewportChange(fn func(viewport.Viewport)) Option {
	return func(c *Controller) { c.onViewport = fn }
}

// New creates a controller driving g.
func New(g *graph.Graph, scene Scene, opts ...Option) *Controller {
	c := &Controller{
		graph:        g,
		scene:        scene,
		logger:       slog.Default(),
		vp:           viewport.Identity(),
		limits:       viewport.DefaultLimits(),
		handleRadius: DefaultHandleRadius,
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.limits.Valid() {
		c.limits = viewport.DefaultLimits()
	}
	return c
}

func (c *Controller) State() State { return c.state }

// Limits returns the zoom range in use.
func (c *Controller) Limits() viewport.Limits { return c.limits }

// --- Viewport ---

// Viewport returns the current viewport.
func (c *Controller) Viewport() viewport.Viewport { return c.vp }

// SetViewport replaces the viewport. Zoom is clamped, never rejected.
func (c *Controller) SetViewport(v viewport.Viewport) {
	if !geom.Pt(v.PanX, v.PanY).IsFinite() {
		v.PanX, v.PanY = c.vp.PanX, c.vp.PanY
	}
	v.Zoom = c.limits.Clamp(v.Zoom)
	if v == c.vp {
		return
	}
	c.vp = v
	if c.onViewport != nil {
		c.onViewport(v)
	}
}

// ZoomAt zooms by factor around a screen point.
func (c *Controller) ZoomAt(focal geom.Point, factor float64) {
	c.SetViewport(viewport.ZoomAt(c.vp, focal, factor, c.limits))
}

// PanBy pans by a screen-space delta.
func (c *Controller) PanBy(delta geom.Point) {
	c.SetViewport(viewport.PanBy(c.vp, delta))
}

// ZoomIn zooms one step towards the centre of a screen of the given size.
func (c *Controller) ZoomIn(screen geom.Size) {
	c.SetViewport(viewport.ZoomIn(c.vp, screen, c.limits))
}

// ZoomOut zooms one step away from the centre of a screen of the given size.
func (c *Controller) ZoomOut(screen geom.Size) {
	c.SetViewport(viewport.ZoomOut(c.vp, screen, c.limits))
}

// FitView frames bounds on a screen of the given size.
func (c *Controller) FitView(bounds geom.Rect, screen geom.Size, padding float64) {
	c.SetViewport(viewport.FitView(bounds, screen, padding, c.limits))
}

// Wheel zooms around the pointer. It is ignored while a node is being dragged.
func (c *Controller) Wheel(at geom.Point, deltaY float64, mode viewport.WheelMode) {
	if c.state == DraggingNode {
		return
	}
	c.zoomedMidPan = c.zoomedMidPan || c.state == Panning
	c.ZoomAt(at, viewport.WheelFactor(deltaY, mode))
}

// Pinch applies a two-finger scale gesture centred on at.
func (c *Controller) Pinch(at geom.Point, scale float64) {
	if c.state == DraggingNode {
		return
	}
	c.zoomedMidPan = c.zoomedMidPan || c.state == Panning
	c.ZoomAt(at, scale)
}

func (c *Controller) toGraph(p geom.Point) geom.Point {
	return viewport.ScreenToGraph(p, c.vp)
}

// --- Pointer ---

// PointerDown starts a gesture depending on what is under the pointer.
func (c *Controller) PointerDown(ev PointerEvent) error {
	if c.state != Idle {
		// A second button while a gesture is active is ignored.
		return nil
	}
	if ev.Button != ButtonPrimary && ev.Button != ButtonMiddle {
		return nil
	}

	c.down, c.last, c.moved = ev.Point, ev.Point, false
	p := c.toGraph(ev.Point)

	if ev.Button == ButtonMiddle {
		c.startPan()
		return nil
	}

	t := c.scene.HitTest(p, c.handleRadius/c.vp.Zoom)
	switch t.Kind {
	case TargetHandle:
		c.startConnect(t)
		return nil
	case TargetNode:
		return c.startDrag(t.NodeID, p, ev.Mods.Additive())
	case TargetEdge:
		return c.graph.SelectEdge(t.EdgeID, ev.Mods.Additive())
	}

	if ev.Mods.Shift {
		c.state = BoxSelecting
		c.boxAnchor, c.boxCurrent = p, p
		c.prevSelection = c.graph.Selection()
		return nil
	}
	c.startPan()
	return nil
}

func (c *Controller) startPan() {
	c.state = Panning
	c.startViewport = c.vp
}

func (c *Controller) startDrag(id string, p geom.Point, additive bool) error {
	n, ok := c.graph.Node(id)
	if !ok {
		return fmt.Errorf("drag: %w: %s", graph.ErrNodeNotFound, id)
	}

	switch {
	case additive:
		if err := c.graph.SelectNode(id, true); err != nil {
			return err
		}
	case !n.Selected:
		if err := c.graph.SelectNode(id, false); err != nil {
			return err
		}
	}

	// Dragging a selected node moves the whole node selection with it.
	ids := []string{id}
	if c.graph.IsNodeSelected(id) {
		ids = c.graph.Selection().Nodes
	}
	c.dragStart = make(map[string]geom.Point, len(ids))
	c.dragOrder = c.dragOrder[:0]
	for _, nid := range ids {
		if m, ok := c.graph.Node(nid); ok {
			c.dragStart[nid] = m.Position
			c.dragOrder = append(c.dragOrder, nid)
		}
	}
	if _, ok := c.dragStart[id]; !ok {
		c.dragStart[id] = n.Position
		c.dragOrder = append(c.dragOrder, id)
	}

	c.state = DraggingNode
	c.dragNode = id
	c.dragOffset = p.Sub(n.Position)
	return nil
}

func (c *Controller) startConnect(t Target) {
	c.state = ConnectingEdge
	c.connect = graph.HandleRef{NodeID: t.NodeID, HandleID: t.HandleID}
	c.connectRole = t.Role
	if a, ok := c.scene.HandleAnchor(c.connect); ok {
		c.connectFrom = a
	} else {
		c.connectFrom = c.toGraph(c.down)
	}
	c.preview = ConnectionPreview{From: c.connectFrom, To: c.connectFrom, FromHandle: c.connect}
}

// PointerMove advances the active gesture.
func (c *Controller) PointerMove(ev PointerEvent) error {
	if c.state == Idle {
		return nil
	}
	if ev.Point.Distance(c.down) > clickSlop {
		c.moved = true
	}
	delta := ev.Point.Sub(c.last)
	c.last = ev.Point
	p := c.toGraph(ev.Point)

	switch c.state {
	case Panning:
		before := c.vp
		c.PanBy(delta)
		c.panned = c.panned.Add(geom.Pt(c.vp.PanX-before.PanX, c.vp.PanY-before.PanY))
	case DraggingNode:
		return c.dragTo(p)
	case ConnectingEdge:
		c.updatePreview(p)
	case BoxSelecting:
		c.boxCurrent = p
		return c.graph.SetSelection(c.scene.NodesWithin(c.BoxRect()), nil)
	}
	return nil
}

func (c *Controller) dragTo(p geom.Point) error {
	target := p.Sub(c.dragOffset)
	shift := target.Sub(c.dragStart[c.dragNode])
	for _, id := range c.dragOrder {
		if err := c.graph.MoveNode(id, c.dragStart[id].Add(shift)); err != nil {
			if errors.Is(err, graph.ErrNodeNotFound) {
				continue
			}
			return err
		}
	}
	return nil
}

func (c *Controller) updatePreview(p geom.Point) {
	c.preview = ConnectionPreview{From: c.connectFrom, To: p, FromHandle: c.connect}

	t := c.scene.HitTest(p, c.handleRadius/c.vp.Zoom)
	if t.Kind != TargetHandle {
		return
	}
	if a, ok := c.scene.HandleAnchor(t.Handle()); ok {
		c.preview.To = a
	}
	e := c.candidate(t)
	h := t.Handle()
	c.preview.Target = &h
	err := c.graph.ValidateConnection(e)
	c.preview.Valid = err == nil
	c.preview.Reason, _ = graph.RejectionReason(err)
}

// candidate orients the edge output to input regardless of which end the
// user started dragging from.
func (c *Controller) candidate(t Target) graph.Edge {
	from, to := c.connect, t.Handle()
	if c.connectRole == nodetype.RoleInput {
		from, to = to, from
	}
	return graph.Edge{Source: from, Target: to}
}

// PointerUp finishes the active gesture. For a connection dropped on a handle
// the result of AddEdge is returned, so a refused connection surfaces as a
// *graph.ValidationError.
func (c *Controller) PointerUp(ev PointerEvent) error {
	state := c.state
	if state == Idle {
		return nil
	}
	defer c.reset()

	switch state {
	case Panning:
		if !c.moved && c.startViewport == c.vp {
			return c.graph.ClearSelection()
		}
	case DraggingNode:
		if c.moved {
			c.logger.Debug("node drag committed", "node", c.dragNode, "count", len(c.dragOrder))
		}
	case ConnectingEdge:
		p := c.toGraph(ev.Point)
		t := c.scene.HitTest(p, c.handleRadius/c.vp.Zoom)
		if t.Kind != TargetHandle {
			return nil
		}
		_, err := c.graph.AddEdge(c.candidate(t))
		if err != nil {
			c.logger.Debug("connection refused", "from", c.connect.String(), "to", t.Handle().String(), "error", err)
		}
		return err
	case BoxSelecting:
		c.boxCurrent = c.toGraph(ev.Point)
		return c.graph.SetSelection(c.scene.NodesWithin(c.BoxRect()), nil)
	}
	return nil
}

// Cancel aborts the active gesture and restores what it changed.
func (c *Controller) Cancel() error {
	state := c.state
	defer c.reset()

	switch state {
	case Panning:
		// Zoom applied during the pan is already committed; only the drag is undone.
		if !c.zoomedMidPan {
			c.SetViewport(c.startViewport)
			return nil
		}
		v := c.vp
		v.PanX -= c.panned.X
		v.PanY -= c.panned.Y
		c.SetViewport(v)
	case DraggingNode:
		for _, id := range c.dragOrder {
			if err := c.graph.MoveNode(id, c.dragStart[id]); err != nil && !errors.Is(err, graph.ErrNodeNotFound) {
				return err
			}
		}
	case BoxSelecting:
		return c.graph.SetSelection(c.prevSelection.Nodes, c.prevSelection.Edges)
	}
	return nil
}

func (c *Controller) reset() {
	c.state = Idle
	c.moved = false
	c.panned = geom.Point{}
	c.zoomedMidPan = false
	c.dragNode = ""
	c.dragStart = nil
	c.dragOrder = nil
	c.connect = graph.HandleRef{}
	c.connectRole = ""
	c.preview = ConnectionPreview{}
	c.prevSelection = graph.SelectionState{}
}

// KeyDown handles keyboard shortcuts. Escape cancels the active gesture;
// Delete and Backspace remove the selection while idle.
func (c *Controller) KeyDown(key string) error {
	switch key {
	case KeyEscape:
		if c.state != Idle {
			return c.Cancel()
		}
	case KeyDelete, KeyBackspace:
		if c.state == Idle {
			return c.graph.RemoveSelected()
		}
	}
	return nil
}

// --- Gesture state for rendering ---

// Preview returns the in-progress connection, if any.
func (c *Controller) Preview() (ConnectionPreview, bool) {
	if c.state != ConnectingEdge {
		return ConnectionPreview{}, false
	}
	return c.preview, true
}

// BoxRect returns the marquee rect in graph coordinates.
func (c *Controller) BoxRect() geom.Rect {
	return geom.RectFromPoints(c.boxAnchor, c.boxCurrent)
}

// Marquee returns the marquee rect while box selecting.
func (c *Controller) Marquee() (geom.Rect, bool) {
	if c.state != BoxSelecting {
		return geom.Rect{}, false
	}
	return c.BoxRect(), true
}
