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

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mitchellh/mapstructure"

	"github.com/kadirpekel/agentui/pkg/bundler"
)

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/health", s.handleHealth)
	if s.metricsHandler != nil {
		r.Handle(s.cfg.Metrics.Path, s.metricsHandler)
	}

	r.Get("/ui/stream", s.handleStream)
	r.Get("/ui/{graphName}/entrypoint.js", s.handleEntrypoint)
	r.Post("/ui/{graphName}/entrypoint.js", s.handleEntrypoint)
	r.Get("/ui/{graphName}/invalidate", s.handleInvalidate)
	r.Post("/ui/{graphName}", s.handleRender)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleEntrypoint serves the bundled component script. The 404 boundary
// for unknown graphs sits here, before the bundler is consulted.
func (s *Server) handleEntrypoint(w http.ResponseWriter, r *http.Request) {
	graphName := chi.URLParam(r, "graphName")
	slog.Info("UI component requested", "graph_name", graphName)

	if graphName != s.cfg.UI.GraphName {
		slog.Warn("No UI component configured for graph", "graph_name", graphName)
		writeError(w, http.StatusNotFound,
			fmt.Sprintf("no UI component configured for graph %q", graphName))
		return
	}

	if !s.cfg.UI.Exists() {
		slog.Error("UI component file not found", "path", s.cfg.UI.ResolvedPath())
		writeError(w, http.StatusNotFound,
			fmt.Sprintf("UI component file not found for graph %q", graphName))
		return
	}

	code, err := s.bundler.Bundle(r.Context(), graphName, s.cfg.UI.ResolvedPath())
	if err != nil {
		var buildErr *bundler.BuildError
		switch {
		case errors.Is(err, bundler.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.As(err, &buildErr):
			slog.Error("Error bundling UI component", "graph_name", graphName, "error", err)
			writeError(w, http.StatusInternalServerError,
				"error bundling UI component: "+buildErr.Error())
		default:
			slog.Error("Error bundling UI component", "graph_name", graphName, "error", err)
			writeError(w, http.StatusInternalServerError,
				"error bundling UI component: "+err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(code))
}

// handleInvalidate drops the bundle cache for the configured graph.
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	graphName := chi.URLParam(r, "graphName")

	if graphName != s.cfg.UI.GraphName {
		writeError(w, http.StatusNotFound,
			fmt.Sprintf("no UI component configured for graph %q", graphName))
		return
	}

	s.bundler.Invalidate()

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Cache invalidated for graph '%s'", graphName),
	})
}

// renderRequest is the render POST body. The flat form carries name and
// props directly; some clients instead JSON-encode both into name.
type renderRequest struct {
	Name  string         `mapstructure:"name"`
	Props map[string]any `mapstructure:"props"`
}

// handleRender returns an HTML fragment that loads the bundle and
// renders one component into a registered mount.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	graphName := chi.URLParam(r, "graphName")
	slog.Info("UI render requested", "graph_name", graphName)

	if graphName != s.cfg.UI.GraphName {
		slog.Warn("UI not found for graph", "graph_name", graphName)
		writeError(w, http.StatusNotFound,
			fmt.Sprintf("UI not found for graph %q", graphName))
		return
	}

	// The render request marks the start of a session's UI exchange;
	// ensure its queue exists so events emitted before the stream
	// attaches are buffered rather than dropped.
	s.bus.EnsureSession(s.ResolveSession(r))

	var req renderRequest
	if err := mapstructure.Decode(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid render request: "+err.Error())
		return
	}

	componentName, componentProps := resolveComponent(req)
	if componentName == "" {
		slog.Error("Empty component name in render request")
		writeError(w, http.StatusBadRequest, "component name is required and cannot be empty")
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(renderFragment(r.Host, graphName, componentName, componentProps)))
}

// resolveComponent unpacks the render body, preferring the nested form
// where name holds a JSON object with its own name and props. Only
// objects take the nested branch; any other JSON value in name (null,
// numbers, quoted strings) is treated as a literal component name.
func resolveComponent(req renderRequest) (string, map[string]any) {
	trimmed := strings.TrimSpace(req.Name)
	if strings.HasPrefix(trimmed, "{") {
		var nested struct {
			Name  string         `json:"name"`
			Props map[string]any `json:"props"`
		}
		if err := json.Unmarshal([]byte(trimmed), &nested); err == nil {
			return nested.Name, nested.Props
		}
	}
	return req.Name, req.Props
}

// renderFragment builds the script tag the client injects. Localhost
// hosts get an explicit http: scheme; everything else stays
// scheme-relative so the page's protocol carries over.
func renderFragment(host, graphName, componentName string, props map[string]any) string {
	protocol := ""
	if isHost(host, "localhost") || isHost(host, "127.0.0.1") {
		protocol = "http:"
	}

	entrypointURL := fmt.Sprintf("%s//%s/ui/%s/entrypoint.js", protocol, host, graphName)

	if props == nil {
		props = map[string]any{}
	}
	nameJSON, _ := json.Marshal(componentName)
	propsJSON, _ := json.Marshal(props)

	return fmt.Sprintf(
		`<script src="%s" onload='__AGUI_%s.render(%s, "{{shadowRootId}}", %s)'></script>`,
		entrypointURL, bundler.SanitizeName(graphName), nameJSON, propsJSON)
}

func isHost(host, needle string) bool {
	return host == needle || strings.HasPrefix(host, needle+":")
}
