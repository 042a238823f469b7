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
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamRequiresSession(t *testing.T) {
	srv, _ := newTestServer(t, &stubBundler{code: "// js"})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ui/stream", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "session")
}

// readSSEFrames collects n data frames from an SSE body.
func readSSEFrames(t *testing.T, body *bufio.Reader, n int) []map[string]any {
	t.Helper()
	frames := make([]map[string]any, 0, n)
	for len(frames) < n {
		line, err := body.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame))
		frames = append(frames, frame)
	}
	return frames
}

func TestStreamDeliversBufferedAndLiveEvents(t *testing.T) {
	srv, bus := newTestServer(t, &stubBundler{code: "// js"})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// Emitted before the stream attaches; must be buffered.
	bus.Emit("s1", "weather", map[string]any{"location": "Boston", "temperature": "Loading..."}, "weather-boston", false)

	resp, err := http.Get(ts.URL + "/ui/stream?session=s1")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	// Emitted while the stream is live.
	go func() {
		time.Sleep(20 * time.Millisecond)
		bus.Emit("s1", "weather", map[string]any{"temperature": 47}, "weather-boston", true)
		bus.Remove("s1", "weather-boston")
	}()

	frames := readSSEFrames(t, bufio.NewReader(resp.Body), 3)

	assert.Equal(t, "ui", frames[0]["type"])
	assert.Equal(t, "weather_app", frames[0]["graph_name"])
	assert.Equal(t, false, frames[0]["merge"])

	assert.Equal(t, "ui", frames[1]["type"])
	assert.Equal(t, true, frames[1]["merge"])
	assert.Equal(t, "weather-boston", frames[1]["id"])

	assert.Equal(t, "remove-ui", frames[2]["type"])
	assert.Equal(t, "weather-boston", frames[2]["id"])
	assert.NotContains(t, frames[2], "merge")
}

func TestStreamSessionsIsolated(t *testing.T) {
	srv, bus := newTestServer(t, &stubBundler{code: "// js"})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	bus.Emit("a", "weather", map[string]any{}, "only-a", false)
	bus.Emit("b", "weather", map[string]any{}, "only-b", false)

	resp, err := http.Get(ts.URL + "/ui/stream?session=a")
	require.NoError(t, err)
	defer resp.Body.Close()

	frames := readSSEFrames(t, bufio.NewReader(resp.Body), 1)
	assert.Equal(t, "only-a", frames[0]["id"])
}

func TestStreamSessionHeaderFallback(t *testing.T) {
	srv, bus := newTestServer(t, &stubBundler{code: "// js"})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	bus.Emit("hdr", "weather", map[string]any{}, "via-header", false)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/ui/stream", nil)
	require.NoError(t, err)
	req.Header.Set("X-Session-ID", "hdr")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	frames := readSSEFrames(t, bufio.NewReader(resp.Body), 1)
	assert.Equal(t, "via-header", frames[0]["id"])
}
