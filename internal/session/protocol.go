package session

import (
	"encoding/json"

	"github.com/hyyve/flowcanvas/internal/engine"
	"github.com/hyyve/flowcanvas/internal/geom"
	"github.com/hyyve/flowcanvas/internal/graph"
	"github.com/hyyve/flowcanvas/internal/interaction"
	"github.com/hyyve/flowcanvas/internal/nodetype"
	"github.com/hyyve/flowcanvas/internal/viewport"
)

type Message struct {
	Type     string          `json:"type"`
	CanvasID string          `json:"canvasId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

const (
	TypeError = "error"

	// Connection
	TypeWelcome = "welcome"

	// Canvas sync
	TypeCanvasSync    = "canvas.sync"
	TypeCanvasChanged = "canvas.changed"

	// Operation message types
	TypeOpSubmit = "op.submit"
	TypeOpAck    = "op.ack"
	TypeOpNack   = "op.nack"
)

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	CanvasID string `json:"canvasId"`
	UserID   string `json:"userId"`
}

// SyncPayload carries the full canvas state sent after welcome.
type SyncPayload struct {
	Snapshot  graph.Snapshot        `json:"snapshot"`
	Viewport  viewport.Viewport     `json:"viewport"`
	Limits    viewport.Limits       `json:"limits"`
	NodeTypes []nodetype.Descriptor `json:"nodeTypes"`
	Commands  []engine.DrawCommand  `json:"commands"`
}

// ChangedPayload carries the engine events produced by one operation and the
// frame to draw afterwards.
type ChangedPayload struct {
	Events   []engine.Event                 `json:"events"`
	State    string                         `json:"state"`
	Preview  *interaction.ConnectionPreview `json:"preview,omitempty"`
	Commands []engine.DrawCommand           `json:"commands"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// --- Operation Types ---

// Operation kinds.
const (
	OpNodeAdd      = "node.add"
	OpNodeDrop     = "node.drop"
	OpNodeMove     = "node.move"
	OpNodeResize   = "node.resize"
	OpNodeData     = "node.data"
	OpNodeRemove   = "node.remove"
	OpEdgeAdd      = "edge.add"
	OpEdgeRemove   = "edge.remove"
	OpSelectionSet = "selection.set"
	OpSelectionDel = "selection.delete"
	OpViewportSet  = "viewport.set"
	OpViewportFit  = "viewport.fit"
	OpZoomIn       = "viewport.zoomIn"
	OpZoomOut      = "viewport.zoomOut"
	OpScreenResize = "screen.resize"
	OpMinimapClick = "minimap.click"
	OpPointerDown  = "pointer.down"
	OpPointerMove  = "pointer.move"
	OpPointerUp    = "pointer.up"
	OpWheel        = "wheel"
	OpPinch        = "pinch"
	OpKey          = "key"
)

// Operation is one command from the client. Only the fields its Type needs are set.
type Operation struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	// For node.* and edge.*
	NodeID   string          `json:"nodeId,omitempty"`
	EdgeID   string          `json:"edgeId,omitempty"`
	Node     *graph.Node     `json:"node,omitempty"`
	Edge     *graph.Edge     `json:"edge,omitempty"`
	NodeType string          `json:"nodeType,omitempty"`
	Position *geom.Point     `json:"position,omitempty"`
	Size     *geom.Size      `json:"size,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`

	// For selection.set
	NodeIDs []string `json:"nodeIds,omitempty"`
	EdgeIDs []string `json:"edgeIds,omitempty"`

	// For viewport.set
	Viewport *viewport.Viewport `json:"viewport,omitempty"`

	// For input events; Point is in screen pixels
	Pointer *interaction.PointerEvent `json:"pointer,omitempty"`
	Point   *geom.Point               `json:"point,omitempty"`
	DeltaY  float64                   `json:"deltaY,omitempty"`
	Mode    viewport.WheelMode        `json:"deltaMode,omitempty"`
	Scale   float64                   `json:"scale,omitempty"`
	Key     string                    `json:"key,omitempty"`
}

type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

type OperationAckPayload struct {
	OperationID string `json:"operationId"`
	ServerSeq   int64  `json:"serverSeq"`
	ResultID    string `json:"resultId,omitempty"` // id of a created node or edge
}

type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
	Message     string `json:"message"`
}
