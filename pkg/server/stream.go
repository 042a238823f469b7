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
	"fmt"
	"log/slog"
	"net/http"
)

// handleStream serves the per-session SSE event stream. Events emitted
// before the stream attaches are buffered and delivered on connect.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	session := sessionID(r)
	if session == "" {
		writeError(w, http.StatusBadRequest, "session parameter required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := s.bus.Subscribe(session)
	defer sub.Close()

	slog.Info("UI stream attached", "session", session)

	for {
		evt, err := sub.Next(r.Context())
		if err != nil {
			// Client disconnected or server shutting down.
			slog.Info("UI stream closed", "session", session)
			return
		}

		data, err := json.Marshal(evt)
		if err != nil {
			slog.Error("Failed to encode UI event", "session", session, "error", err)
			continue
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			slog.Info("UI stream write failed", "session", session, "error", err)
			return
		}
		flusher.Flush()
	}
}
