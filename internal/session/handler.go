package session

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hyyve/flowcanvas/internal/auth"
	"github.com/hyyve/flowcanvas/internal/typeid"
)

type Handler struct {
	hub            *Hub
	originPatterns []string
}

// NewHandler serves canvas websockets. originPatterns are host patterns as
// accepted by websocket.AcceptOptions.
func NewHandler(hub *Hub, originPatterns []string) *Handler {
	return &Handler{hub: hub, originPatterns: originPatterns}
}

// ServeWS upgrades GET /ws/canvas/{canvasId}. The request must already carry a
// user id from auth.Middleware. The template query parameter picks the seed
// graph of a canvas opened for the first time.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	canvasID := mux.Vars(r)["canvasId"]
	if err := typeid.Validate(canvasID, typeid.PrefixCanvas); err != nil {
		http.Error(w, "invalid canvas id", http.StatusBadRequest)
		return
	}
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(h.hub, conn, userID, canvasID, uuid.New().String())
	if err := h.hub.Register(client, r.URL.Query().Get("template")); err != nil {
		code := websocket.StatusInternalError
		if errors.Is(err, ErrCanvasBusy) {
			code = websocket.StatusPolicyViolation
		}
		slog.Warn("canvas open refused", "error", err, "user", userID)
		conn.Close(code, err.Error())
		return
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
