// Package api exposes the engine's operations over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"token-ledger-engine/internal/eligibility"
	"token-ledger-engine/internal/lucky"
	"token-ledger-engine/internal/mint"
	"token-ledger-engine/internal/profit"
	"token-ledger-engine/internal/storage"
	"token-ledger-engine/internal/trade"
)

// Server routes HTTP requests to the engine components.
type Server struct {
	router   *chi.Mux
	ledger   storage.Ledger
	minter   *mint.Distributor
	trades   *trade.Processor
	tracker  *eligibility.Tracker
	profits  *profit.Distributor
	selector *lucky.Selector
	logger   *slog.Logger
	srv      *http.Server
}

// NewServer creates a new HTTP server on addr.
func NewServer(
	addr string,
	ledger storage.Ledger,
	minter *mint.Distributor,
	trades *trade.Processor,
	tracker *eligibility.Tracker,
	profits *profit.Distributor,
	selector *lucky.Selector,
	logger *slog.Logger,
) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		ledger:   ledger,
		minter:   minter,
		trades:   trades,
		tracker:  tracker,
		profits:  profits,
		selector: selector,
		logger:   logger,
	}

	s.setupRoutes()

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/tokens", s.handleMint)
		r.Get("/tokens", s.handleListTokens)
		r.Get("/tokens/{tokenID}", s.handleGetToken)
		r.Post("/tokens/{tokenID}/trades", s.handleTrade)
		r.Post("/tokens/{tokenID}/burn", s.handleBurn)
		r.Post("/tokens/{tokenID}/lucky", s.handleSelectLucky)
		r.Get("/tokens/{tokenID}/eligibility/{wallet}", s.handleCheckEligibility)
		r.Post("/pools/{pool}/distribute", s.handleDistributeProfit)
		r.Get("/pools/{pool}", s.handleGetPool)
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.srv.Shutdown(ctx)
}

// statusFor maps engine errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateKey), errors.Is(err, storage.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, storage.ErrInsufficientBalance), errors.Is(err, lucky.ErrNoEligibleCandidates):
		return http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// writeError writes an error response with the mapped status.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]any{
		"error":     err.Error(),
		"retryable": errors.Is(err, storage.ErrVersionConflict) || errors.Is(err, storage.ErrUnavailable),
	})
}
