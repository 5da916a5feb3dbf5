// Package httpapi exposes the Turn Orchestrator over HTTP (spec §6): a
// Turn-level RPC, an Order RPC, and a server-push stream of activity events.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/shopsage/shopsage/internal/config"
	"github.com/shopsage/shopsage/internal/orchestrator"
)

// Server is the HTTP API server.
type Server struct {
	orchestrator *orchestrator.Orchestrator
	config       *config.ServerConfig
	logger       *zap.Logger
	server       *http.Server
	streams      *streamRegistry
}

// NewServer creates a server bound to orc.
func NewServer(orc *orchestrator.Orchestrator, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{orchestrator: orc, config: cfg, logger: logger, streams: newStreamRegistry()}
}

// Start builds the router and blocks serving HTTP until the listener fails
// or Stop shuts it down.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/turns", s.handleTurn)
	r.Post("/api/v1/orders", s.handleOrder)
	r.Get("/api/v1/turns/{turn_id}/stream", s.handleStream)
	r.Get("/health", s.handleHealth)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{Addr: addr, Handler: r}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
