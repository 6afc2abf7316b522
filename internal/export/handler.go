package export

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/hyyve/flowcanvas/internal/engine"
)

// CanvasSource finds the engine of an open canvas and runs fn with it held.
type CanvasSource interface {
	ViewCanvas(canvasID string, fn func(*engine.Engine)) bool
}

type Handler struct {
	canvases CanvasSource
}

func NewHandler(canvases CanvasSource) *Handler {
	return &Handler{canvases: canvases}
}

// ExportCanvas serves GET /api/canvases/{canvasId}/export?format=svg|json&name=.
func (h *Handler) ExportCanvas(w http.ResponseWriter, r *http.Request) {
	canvasID := mux.Vars(r)["canvasId"]

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "svg"
	}
	if format != "svg" && format != "json" {
		http.Error(w, "invalid format: must be svg or json", http.StatusBadRequest)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "canvas"
	}
	// Sanitize filename
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)

	var (
		body []byte
		err  error
	)
	found := h.canvases.ViewCanvas(canvasID, func(e *engine.Engine) {
		if format == "svg" {
			body = SVG(e)
			return
		}
		body, err = e.SnapshotJSON()
	})
	if !found {
		http.Error(w, "canvas not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("export canvas", "canvas", canvasID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	contentType := "image/svg+xml"
	if format == "json" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	w.Write(body)

	slog.Info("canvas exported", "canvas", canvasID, "format", format, "size", len(body))
}
