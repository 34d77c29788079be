// Package server exposes the advisory HTTP endpoints: ad-hoc rate
// negotiation, shipment tracking, compliance guidance, and graph-backed
// recommendations. Success and failure both use one envelope so UI clients
// can drive their retry behavior off retry_allowed.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/exportedge/freight-advisor/internal/config"
	"github.com/exportedge/freight-advisor/internal/graph"
	"github.com/exportedge/freight-advisor/internal/resilience"
	"github.com/exportedge/freight-advisor/internal/scorer"
	"github.com/exportedge/freight-advisor/pkg/anthropic"
)

// Server holds the advisory endpoints' dependencies.
type Server struct {
	cfg   *config.Config
	llm   anthropic.Client
	graph graph.Store
	retry resilience.Policy
}

// New creates a Server.
func New(cfg *config.Config, llm anthropic.Client, g graph.Store) *Server {
	return &Server{
		cfg:   cfg,
		llm:   llm,
		graph: g,
		retry: resilience.DefaultPolicy(),
	}
}

// Router builds the chi router with all advisory routes mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/negotiate", s.handleNegotiate)
		r.Post("/track", s.handleTrack)
		r.Post("/compliance", s.handleCompliance)
		r.Get("/recommendations/{orderID}", s.handleRecommendations)
		r.Get("/tiers", s.handleTiers)
	})

	return r
}

// ListenAndServe runs the server until the context is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", s.cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

// writeError emits the uniform failure envelope. retry_allowed flips off once
// the client reports it is already retrying.
func writeError(w http.ResponseWriter, err error, isRetrying bool) {
	zap.L().Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"error":         err.Error(),
		"retry_allowed": !isRetrying,
	})
}

func (s *Server) ranker() scorer.Ranker {
	return scorer.NewRanker(s.cfg.Pipeline.TopN)
}
