package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hyyve/flowcanvas/internal/engine"
	"github.com/hyyve/flowcanvas/internal/graph"
	"github.com/hyyve/flowcanvas/internal/interaction"
)

// Nack reasons besides the validator's own (SelfHandle, DuplicateConnection,
// IncompatibleHandles).
const (
	ReasonInvalidOperation = "InvalidOperation"
	ReasonUnknownOperation = "UnknownOperation"
	ReasonDuplicateID      = "DuplicateID"
	ReasonUnknownNode      = "UnknownNodeReference"
	ReasonNotFound         = "NotFound"
	ReasonInvalidNode      = "InvalidNode"
	ReasonRejected         = "Rejected"
)

var (
	ErrInvalidOperation = errors.New("invalid operation")
	ErrUnknownOperation = errors.New("unknown operation type")
)

// Session holds the engine for one open canvas. Apply is serialised, so the
// engine only ever sees one caller at a time.
type Session struct {
	mu        sync.Mutex
	canvasID  string
	engine    *engine.Engine
	serverSeq int64
	pending   []engine.Event
	lastState interaction.State
	cancel    func()
	metrics   *Metrics
}

// NewSession wraps eng. Events the engine emits are buffered until Flush.
func NewSession(canvasID string, eng *engine.Engine, metrics *Metrics) *Session {
	s := &Session{
		canvasID: canvasID,
		engine:   eng,
		metrics:  metrics,
	}
	s.cancel = eng.Subscribe(func(ev engine.Event) {
		s.pending = append(s.pending, ev)
	})
	return s
}

func (s *Session) CanvasID() string { return s.canvasID }

// Close detaches the session from its engine.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Sync returns the full state for a newly connected client.
func (s *Session) Sync() SyncPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SyncPayload{
		Snapshot:  s.engine.Snapshot(),
		Viewport:  s.engine.Viewport(),
		Limits:    s.engine.ZoomLimits(),
		NodeTypes: s.engine.Registry().Descriptors(),
		Commands:  s.engine.Render(),
	}
}

// View runs fn with the engine while no operation can be applied.
func (s *Session) View(fn func(*engine.Engine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.engine)
}

// Apply runs op against the engine and returns the server sequence number and
// the id of any node or edge it created.
func (s *Session) Apply(op Operation) (seq int64, resultID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	resultID, err = s.applyLocked(op)
	s.metrics.observeOp(op.Type, time.Since(start), NackReason(err))
	if err != nil {
		return 0, "", err
	}

	s.serverSeq++
	return s.serverSeq, resultID, nil
}

// Flush drains the buffered events and compiles the current frame. ok is
// false when nothing changed since the last flush.
func (s *Session) Flush() (ChangedPayload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.pending
	s.pending = nil
	state := s.engine.State()
	p := ChangedPayload{
		Events: events,
		State:  state.String(),
	}
	if pv, ok := s.engine.Preview(); ok {
		p.Preview = &pv
	}
	// a gesture redraws on every move, and once more when it ends
	redraw := len(events) > 0 || state != interaction.Idle || s.lastState != interaction.Idle
	s.lastState = state
	if !redraw {
		return p, false
	}
	p.Commands = s.engine.Render()
	return p, true
}

func (s *Session) applyLocked(op Operation) (string, error) {
	e := s.engine
	switch op.Type {
	case OpNodeAdd:
		if op.Node == nil {
			return "", missing(op, "node")
		}
		return e.AddNode(*op.Node)
	case OpNodeDrop:
		if op.NodeType == "" || op.Point == nil {
			return "", missing(op, "nodeType and point")
		}
		return e.DropNode(op.NodeType, *op.Point, op.Data)
	case OpNodeMove:
		if op.Position == nil {
			return "", missing(op, "position")
		}
		return "", e.MoveNode(op.NodeID, *op.Position)
	case OpNodeResize:
		if op.Size == nil {
			return "", missing(op, "size")
		}
		return "", e.ResizeNode(op.NodeID, *op.Size)
	case OpNodeData:
		return "", e.SetNodeData(op.NodeID, op.Data)
	case OpNodeRemove:
		return "", e.RemoveNode(op.NodeID)

	case OpEdgeAdd:
		if op.Edge == nil {
			return "", missing(op, "edge")
		}
		return e.AddEdge(*op.Edge)
	case OpEdgeRemove:
		return "", e.RemoveEdge(op.EdgeID)

	case OpSelectionSet:
		return "", e.SetSelection(op.NodeIDs, op.EdgeIDs)
	case OpSelectionDel:
		return "", e.RemoveSelected()

	case OpViewportSet:
		if op.Viewport == nil {
			return "", missing(op, "viewport")
		}
		e.SetViewport(*op.Viewport)
	case OpViewportFit:
		e.FitView()
	case OpZoomIn:
		e.ZoomIn()
	case OpZoomOut:
		e.ZoomOut()
	case OpScreenResize:
		if op.Size == nil || op.Size.Width <= 0 || op.Size.Height <= 0 {
			return "", missing(op, "positive size")
		}
		e.SetScreenSize(*op.Size)
	case OpMinimapClick:
		if op.Size == nil || op.Point == nil {
			return "", missing(op, "size and point")
		}
		e.MinimapNavigate(*op.Size, *op.Point)

	case OpPointerDown, OpPointerMove, OpPointerUp:
		if op.Pointer == nil {
			return "", missing(op, "pointer")
		}
		switch op.Type {
		case OpPointerDown:
			return "", e.PointerDown(*op.Pointer)
		case OpPointerMove:
			return "", e.PointerMove(*op.Pointer)
		default:
			return "", e.PointerUp(*op.Pointer)
		}
	case OpWheel:
		if op.Point == nil {
			return "", missing(op, "point")
		}
		e.Wheel(*op.Point, op.DeltaY, op.Mode)
	case OpPinch:
		if op.Point == nil || op.Scale <= 0 {
			return "", missing(op, "point and positive scale")
		}
		e.Pinch(*op.Point, op.Scale)
	case OpKey:
		if op.Key == "" {
			return "", missing(op, "key")
		}
		return "", e.KeyDown(op.Key)

	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOperation, op.Type)
	}
	return "", nil
}

func missing(op Operation, what string) error {
	return fmt.Errorf("%w: %s requires %s", ErrInvalidOperation, op.Type, what)
}

// NackReason classifies an Apply error for the op.nack payload. It returns ""
// for a nil error.
func NackReason(err error) string {
	if err == nil {
		return ""
	}
	if r, ok := graph.RejectionReason(err); ok {
		return string(r)
	}
	switch {
	case errors.Is(err, ErrUnknownOperation):
		return ReasonUnknownOperation
	case errors.Is(err, ErrInvalidOperation):
		return ReasonInvalidOperation
	case errors.Is(err, graph.ErrDuplicateID):
		return ReasonDuplicateID
	case errors.Is(err, graph.ErrUnknownNodeReference):
		return ReasonUnknownNode
	case errors.Is(err, graph.ErrNodeNotFound), errors.Is(err, graph.ErrEdgeNotFound):
		return ReasonNotFound
	case errors.Is(err, graph.ErrInvalidGeometry), errors.Is(err, graph.ErrEmptyType):
		return ReasonInvalidNode
	}
	return ReasonRejected
}
