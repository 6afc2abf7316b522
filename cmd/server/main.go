package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/hyyve/flowcanvas/internal/auth"
	"github.com/hyyve/flowcanvas/internal/config"
	"github.com/hyyve/flowcanvas/internal/engine"
	"github.com/hyyve/flowcanvas/internal/export"
	"github.com/hyyve/flowcanvas/internal/logging"
	mw "github.com/hyyve/flowcanvas/internal/middleware"
	"github.com/hyyve/flowcanvas/internal/nodetype"
	"github.com/hyyve/flowcanvas/internal/session"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout))

	registry := nodetype.NewBuiltinRegistry()
	if cfg.NodeTypesFile != "" {
		added, err := registry.LoadTOMLFile(cfg.NodeTypesFile)
		if err != nil {
			slog.Error("load node types", "file", cfg.NodeTypesFile, "error", err)
			os.Exit(1)
		}
		slog.Info("loaded node types", "file", cfg.NodeTypesFile, "types", added)
	}

	authService := auth.NewService(cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	metrics := session.NewMetrics()
	hub := session.NewHub(session.SeedFactory(slog.Default(),
		engine.WithRegistry(registry),
		engine.WithZoomLimits(cfg.Limits()),
	), metrics)
	wsHandler := session.NewHandler(hub, cfg.OriginHosts())
	exportHandler := export.NewHandler(hub)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	// Node type catalogue (public, read-only)
	r.HandleFunc("/api/node-types", nodetype.Handler(registry)).Methods("GET", "OPTIONS")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.Middleware(cfg.AllowAnonymous))
	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/canvases/{canvasId}/export", exportHandler.ExportCanvas).Methods("GET")

	// WebSocket endpoint; browsers pass the token as a query parameter
	ws := r.PathPrefix("/ws").Subrouter()
	ws.Use(authService.Middleware(cfg.AllowAnonymous))
	ws.HandleFunc("/canvas/{canvasId}", wsHandler.ServeWS)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
		hub.Close()
	}()

	slog.Info("server starting", "addr", addr, "anonymous", cfg.AllowAnonymous)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
