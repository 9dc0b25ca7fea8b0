// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/docsearch/ingestion"
	"github.com/poiesic/docsearch/search"
	"github.com/poiesic/docsearch/storage"
)

// Config holds HTTP server configuration.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// WriteToken guards document writes. Empty disables write auth.
	WriteToken string
}

// Server manages the HTTP server and routes.
type Server struct {
	searcher   *search.Searcher
	docRepo    storage.DocumentRepository
	pipeline   *ingestion.Pipeline
	config     *Config
	logger     *slog.Logger
	httpServer *http.Server
}

// New creates a new HTTP server.
// pipeline may be nil, in which case document writes return 503.
func New(
	searcher *search.Searcher,
	docRepo storage.DocumentRepository,
	pipeline *ingestion.Pipeline,
	config *Config,
) (*Server, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if docRepo == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if config == nil {
		config = &Config{Addr: ":8080"}
	}

	s := &Server{
		searcher: searcher,
		docRepo:  docRepo,
		pipeline: pipeline,
		config:   config,
		logger:   slog.Default().With("component", "server"),
	}

	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Routes builds the request mux. Exposed for tests.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/search", s.handleKeywordSearch)
	mux.HandleFunc("GET /api/search/semantic", s.handleSemanticSearch)
	mux.HandleFunc("GET /api/documents/{id}", s.handleGetDocument)
	mux.HandleFunc("POST /api/documents", s.handleAddDocuments)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return s.withRequestLog(mux)
}

// Start runs the server until ListenAndServe returns.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.config.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request handled",
			"method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}
