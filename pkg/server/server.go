// Copyright 2025 Kadir Pekel
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

// Package server exposes the UI bundle and event stream over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kadirpekel/agentui/pkg/config"
	"github.com/kadirpekel/agentui/pkg/uibus"
)

// BundleService is the bundle provider the server depends on.
type BundleService interface {
	Bundle(ctx context.Context, graphName, componentPath string) (string, error)
	Invalidate()
}

// Server serves bundled UI components and streams UI events.
type Server struct {
	cfg     *config.Config
	bundler BundleService
	bus     *uibus.Bus
	router  chi.Router

	metricsHandler http.Handler
	httpServer     *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMetricsHandler mounts a metrics endpoint at the configured path.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// New creates a Server for the configured UI component.
func New(cfg *config.Config, bundler BundleService, bus *uibus.Bus, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		bundler: bundler,
		bus:     bus,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until the context is canceled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.Server.Address(),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("UI server listening",
			"address", s.cfg.Server.Address(),
			"graph_name", s.cfg.UI.GraphName)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("Shutting down UI server")
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// Preload warms the bundle cache so the first render is instant.
// Failure is not fatal; the component bundles on demand instead.
func (s *Server) Preload(ctx context.Context) {
	start := time.Now()
	if _, err := s.bundler.Bundle(ctx, s.cfg.UI.GraphName, s.cfg.UI.ResolvedPath()); err != nil {
		slog.Warn("Failed to pre-bundle UI component, bundling on demand instead",
			"graph_name", s.cfg.UI.GraphName, "error", err)
		return
	}
	slog.Info("Pre-bundled UI component",
		"graph_name", s.cfg.UI.GraphName, "duration", time.Since(start))
}
