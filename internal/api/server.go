// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api exposes the search pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/learninglab/kscholar/internal/collect"
	"github.com/learninglab/kscholar/internal/normalize"
	"github.com/learninglab/kscholar/internal/pipeline"
	"github.com/learninglab/kscholar/pkg/types"
)

// Server handles the HTTP endpoints. Warnings from degraded searches go
// to the response body, not the log writer, so API clients see them.
type Server struct {
	Pipeline *pipeline.Pipeline
	Log      io.Writer
}

// Router builds the chi router with the standard middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/normalize", s.handleNormalize)
	r.Post("/v1/search", s.handleSearch)
	return r
}

// ListenAndServe runs the API server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(s.Log, "api server listening on %s\n", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

type errorResponse struct {
	Error string `json:"error"`
}

type normalizeRequest struct {
	Query string `json:"query"`
	UseAI bool   `json:"use_ai,omitempty"`
}

type normalizeResponse struct {
	Query    string                `json:"query"`
	Terms    []types.CanonicalTerm `json:"terms"`
	Warnings []string              `json:"warnings,omitempty"`
	Cache    normalize.CacheStats  `json:"cache"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("decoding request: %v", err)})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}

	terms, warnings := s.Pipeline.Normalizer.Normalize(r.Context(), req.Query, req.UseAI)
	writeJSON(w, http.StatusOK, normalizeResponse{
		Query:    req.Query,
		Terms:    terms,
		Warnings: warnings,
		Cache:    s.Pipeline.Normalizer.Stats(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("decoding request: %v", err)})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}

	res, err := s.Pipeline.Run(r.Context(), req, io.Discard)
	if err != nil {
		// A backend rejecting our credentials is an upstream failure from
		// the client's point of view.
		if errors.Is(err, collect.ErrAuthentication) {
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
