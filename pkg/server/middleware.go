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
	"log/slog"
	"net/http"
	"time"
)

// corsMiddleware answers preflight requests and attaches permissive
// CORS headers. Embedded agent UIs load bundles cross-origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs requests. It must not wrap the ResponseWriter
// because that breaks http.Flusher for SSE streaming.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

// sessionID resolves the session for a request: the session query
// param first, then the X-Session-ID header. Empty means unresolved.
func sessionID(r *http.Request) string {
	if id := r.URL.Query().Get("session"); id != "" {
		return id
	}
	return r.Header.Get("X-Session-ID")
}

// ResolveSession returns the session id for a request, substituting
// the configured default session when the request carries none. Host
// applications embedding agent routes use this to bind tool contexts
// to the caller's session; the stream endpoint does not fall back
// because an explicit session is required there.
func (s *Server) ResolveSession(r *http.Request) string {
	if id := sessionID(r); id != "" {
		return id
	}
	return s.cfg.Server.DefaultSession
}
