// Package http serves the read-only health and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/quietmarkets/equityrun/internal/metrics"
)

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	LastCycleAt   time.Time `json:"last_cycle_at,omitempty"`
	LastCycleOK   bool      `json:"last_cycle_ok"`
	CyclesStarted int64     `json:"cycles_started"`
}

// Server is the read-only HTTP server. It exposes operational state
// only; it submits nothing and mutates nothing.
type Server struct {
	router *mux.Router
	server *http.Server

	mu          sync.RWMutex
	lastCycleAt time.Time
	lastCycleOK bool
	cycles      int64
}

// NewServer creates the server on host:port, serving /health and
// /metrics from the given registry.
func NewServer(host string, port int, reg *metrics.Registry) *Server {
	router := mux.NewRouter()
	s := &Server{router: router}

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the router, e.g. for tests.
func (s *Server) Handler() http.Handler { return s.router }

// RecordCycle updates the health view after each cycle.
func (s *Server) RecordCycle(at time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCycleAt = at
	s.lastCycleOK = ok
	s.cycles++
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := HealthResponse{
		Status:        "ok",
		Timestamp:     time.Now().UTC(),
		LastCycleAt:   s.lastCycleAt,
		LastCycleOK:   s.lastCycleOK,
		CyclesStarted: s.cycles,
	}
	if !s.lastCycleOK && !s.lastCycleAt.IsZero() {
		resp.Status = "degraded"
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("failed to encode health response")
	}
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		log.Info().Str("addr", s.server.Addr).Msg("http server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server failed")
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
