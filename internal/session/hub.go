package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hyyve/flowcanvas/internal/engine"
)

// ErrCanvasBusy is returned when a second client tries to open a canvas.
var ErrCanvasBusy = errors.New("canvas already has a client")

// EngineFactory builds the engine for a canvas the first time it is opened.
// template names the seed graph requested by the client.
type EngineFactory func(canvasID, template string) (*engine.Engine, error)

type canvas struct {
	session *Session
	client  *Client
}

// Hub keeps one session per canvas for the life of the process and allows one
// connected client per canvas.
type Hub struct {
	mu        sync.Mutex
	canvases  map[string]*canvas
	newEngine EngineFactory
	metrics   *Metrics
}

func NewHub(factory EngineFactory, metrics *Metrics) *Hub {
	return &Hub{
		canvases:  make(map[string]*canvas),
		newEngine: factory,
		metrics:   metrics,
	}
}

// Register attaches client to its canvas, creating the session on first use,
// and queues the welcome and canvas.sync messages.
func (h *Hub) Register(client *Client, template string) error {
	h.mu.Lock()
	cv, ok := h.canvases[client.CanvasID]
	if ok && cv.client != nil {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrCanvasBusy, client.CanvasID)
	}
	if !ok {
		eng, err := h.newEngine(client.CanvasID, template)
		if err != nil {
			h.mu.Unlock()
			return fmt.Errorf("open canvas %s: %w", client.CanvasID, err)
		}
		cv = &canvas{session: NewSession(client.CanvasID, eng, h.metrics)}
		h.canvases[client.CanvasID] = cv
	}
	cv.client = client
	h.mu.Unlock()

	h.metrics.sessionOpened()

	client.SendPayload(TypeWelcome, 0, WelcomePayload{
		ClientID: client.ClientID,
		CanvasID: client.CanvasID,
		UserID:   client.UserID,
	})
	client.SendPayload(TypeCanvasSync, 0, cv.session.Sync())

	slog.Info("client joined", "user", client.UserID, "canvas", client.CanvasID)
	return nil
}

// Unregister detaches client. The canvas stays in memory for the next client.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	cv, ok := h.canvases[client.CanvasID]
	if !ok || cv.client != client {
		h.mu.Unlock()
		return
	}
	cv.client = nil
	close(client.send)
	h.mu.Unlock()

	h.metrics.sessionClosed()
	slog.Info("client left", "user", client.UserID, "canvas", client.CanvasID)
}

// Session returns the session for canvasID, if one has been opened.
func (h *Hub) Session(canvasID string) (*Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cv, ok := h.canvases[canvasID]
	if !ok {
		return nil, false
	}
	return cv.session, true
}

// ViewCanvas runs fn with the engine of an open canvas. It reports false
// when the canvas has never been opened.
func (h *Hub) ViewCanvas(canvasID string, fn func(*engine.Engine)) bool {
	s, ok := h.Session(canvasID)
	if !ok {
		return false
	}
	s.View(fn)
	return true
}

// Close detaches every session from its engine.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, cv := range h.canvases {
		cv.session.Close()
		delete(h.canvases, id)
	}
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypeOpSubmit:
		h.handleOperation(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		sender.SendError("unknown message type " + msg.Type)
	}
}

func (h *Hub) handleOperation(sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		slog.Warn("invalid op payload", "error", err, "user", sender.UserID)
		sender.SendPayload(TypeOpNack, 0, OperationNackPayload{
			Reason:  ReasonInvalidOperation,
			Message: err.Error(),
		})
		return
	}
	op := submit.Operation

	sess, ok := h.Session(sender.CanvasID)
	if !ok {
		return
	}

	seq, resultID, err := sess.Apply(op)
	if err != nil {
		slog.Debug("operation rejected", "op", op.Type, "id", op.ID, "error", err)
		sender.SendPayload(TypeOpNack, 0, OperationNackPayload{
			OperationID: op.ID,
			Reason:      NackReason(err),
			Message:     err.Error(),
		})
	} else {
		sender.SendPayload(TypeOpAck, seq, OperationAckPayload{
			OperationID: op.ID,
			ServerSeq:   seq,
			ResultID:    resultID,
		})
	}

	// a rejected pointer-up still ends the gesture, so flush either way
	if changed, ok := sess.Flush(); ok {
		sender.SendPayload(TypeCanvasChanged, seq, changed)
	}
}
