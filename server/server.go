// Package server exposes the agent over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atakanozcan/docagent/agent"
	"github.com/atakanozcan/docagent/tools"
)

// ============================================================================
// HTTP API
// ============================================================================

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Server serves the question-answering API.
type Server struct {
	agent      *agent.Agent
	registry   *tools.Registry
	metrics    *agent.Metrics
	promReg    *prometheus.Registry
	httpServer *http.Server
}

// New creates a server for the given agent and tool catalog.
func New(agnt *agent.Agent, registry *tools.Registry, addr string) *Server {
	promReg := prometheus.NewRegistry()

	s := &Server{
		agent:    agnt,
		registry: registry,
		metrics:  agent.NewMetrics(promReg),
		promReg:  promReg,
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", promhttp.HandlerFor(s.promReg, promhttp.HandlerOpts{}).ServeHTTP)

	r.Post("/v1/ask", s.handleAsk)
	r.Get("/v1/tools", s.handleTools)

	return r
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	slog.Info("HTTP server starting", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	slog.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer     string  `json:"answer"`
	ExchangeID string  `json:"exchange_id"`
	Turns      int     `json:"turns"`
	ToolCalls  int     `json:"tool_calls"`
	ElapsedSec float64 `json:"elapsed_seconds"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Question == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "question is required"})
		return
	}

	answer, err := s.agent.AnswerQuestion(r.Context(), req.Question, s.metrics.Observer())
	if err != nil {
		slog.Error("Exchange failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	s.metrics.ExchangeCompleted()

	writeJSON(w, http.StatusOK, askResponse{
		Answer:     answer.Text,
		ExchangeID: answer.ExchangeID,
		Turns:      answer.Turns,
		ToolCalls:  answer.ToolCalls,
		ElapsedSec: answer.Elapsed.Seconds(),
	})
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tools": s.registry.ListTools(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
