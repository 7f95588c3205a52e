// Package http exposes health, metrics, and the thin JSON API over the
// analysis orchestrator and geocode resolver.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stormbuster/hailrisk/internal/domain"
)

// Analyzer is the analysis surface the server exposes.
type Analyzer interface {
	AnalyzeOne(ctx context.Context, zipcode string) (domain.ZipcodeAnalysis, error)
	AnalyzeAll(ctx context.Context) []domain.ZipcodeAnalysis
	GenerateLeads(ctx context.Context, zipcode string, propertyValue float64) ([]domain.Lead, error)
	CheckReadiness(ctx context.Context) error
}

// Geocoder is the lookup surface the server exposes.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Address, error)
	EnhancedReverseGeocode(ctx context.Context, lat, lon float64) (domain.EnrichedLookupResult, error)
}

// Server exposes health, readiness, metrics, and API HTTP endpoints.
type Server struct {
	httpServer *http.Server
	analyzer   Analyzer
	geocoder   Geocoder
	logger     *slog.Logger
}

// NewServer creates an HTTP server with health, metrics, and API routes.
func NewServer(addr string, analyzer Analyzer, geocoder Geocoder, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		analyzer: analyzer,
		geocoder: geocoder,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/analysis", s.handleAnalyzeAll)
	mux.HandleFunc("GET /api/v1/analysis/{zipcode}", s.handleAnalyzeOne)
	mux.HandleFunc("GET /api/v1/geocode", s.handleGeocode)
	mux.HandleFunc("GET /api/v1/leads/{zipcode}", s.handleLeads)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.analyzer.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleAnalyzeOne(w http.ResponseWriter, r *http.Request) {
	result, err := s.analyzer.AnalyzeOne(r.Context(), r.PathValue("zipcode"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAnalyzeAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.analyzer.AnalyzeAll(r.Context()))
}

func (s *Server) handleLeads(w http.ResponseWriter, r *http.Request) {
	var propertyValue float64
	if raw := r.URL.Query().Get("property_value"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "property_value must be a non-negative number"})
			return
		}
		propertyValue = v
	}

	leads, err := s.analyzer.GenerateLeads(r.Context(), r.PathValue("zipcode"), propertyValue)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lat and lon query parameters are required"})
		return
	}

	enhanced := r.URL.Query().Get("enhanced") == "true"
	var payload any
	var err error
	if enhanced {
		payload, err = s.geocoder.EnhancedReverseGeocode(r.Context(), lat, lon)
	} else {
		payload, err = s.geocoder.ReverseGeocode(r.Context(), lat, lon)
	}
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrInvalidCoordinates) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
