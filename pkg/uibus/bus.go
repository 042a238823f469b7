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

package uibus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kadirpekel/agentui/pkg/observability"
)

// Bus routes UI events to per-session queues.
type Bus struct {
	graphName string
	ttl       time.Duration
	metrics   observability.Recorder

	mu       sync.Mutex
	sessions map[string]*session

	done      chan struct{}
	closeOnce sync.Once
}

// session pairs a queue with its lifecycle bookkeeping. A session with
// an attached subscriber is never evicted.
type session struct {
	queue       *queue
	subscribers int
	lastActive  time.Time
}

// Option configures a Bus.
type Option func(*Bus)

// WithTTL sets how long idle sessions are kept. Zero disables eviction.
func WithTTL(ttl time.Duration) Option {
	return func(b *Bus) { b.ttl = ttl }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r observability.Recorder) Option {
	return func(b *Bus) { b.metrics = r }
}

// New creates a Bus for the given graph. Close releases the eviction
// goroutine when a TTL is set.
func New(graphName string, opts ...Option) *Bus {
	b := &Bus{
		graphName: graphName,
		metrics:   observability.Noop{},
		sessions:  make(map[string]*session),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.ttl > 0 {
		go b.evictLoop()
	}
	return b
}

// Close stops the eviction goroutine.
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

// EnsureSession creates the session's queue if it does not exist, so
// events emitted before the client attaches its stream are buffered.
func (b *Bus) EnsureSession(sessionID string) {
	if sessionID == "" {
		return
	}
	b.mu.Lock()
	b.ensureLocked(sessionID)
	b.mu.Unlock()
}

// Emit enqueues a render event for the session and returns the event id,
// generating one when id is empty. An empty sessionID drops the event
// with a warning; emitting never blocks.
func (b *Bus) Emit(sessionID, componentName string, props map[string]any, id string, merge bool) string {
	if id == "" {
		id = uuid.NewString()
	}

	if sessionID == "" {
		slog.Warn("UI event dropped: no session id", "component_name", componentName)
		b.metrics.EventDropped(context.Background(), EventTypeRender)
		return id
	}

	evt := &RenderEvent{
		Type:          EventTypeRender,
		ID:            id,
		GraphName:     b.graphName,
		ComponentName: componentName,
		Props:         props,
		Merge:         merge,
	}

	b.mu.Lock()
	s := b.ensureLocked(sessionID)
	s.queue.push(evt)
	s.lastActive = time.Now()
	b.mu.Unlock()

	b.metrics.EventEmitted(context.Background(), EventTypeRender)
	action := "Emitted"
	if merge {
		action = "Merged"
	}
	slog.Info(action+" UI event", "component_name", componentName, "id", id, "session", sessionID)
	return id
}

// Remove enqueues a remove event for the component instance id.
func (b *Bus) Remove(sessionID, id string) {
	if sessionID == "" {
		slog.Warn("UI remove dropped: no session id", "id", id)
		b.metrics.EventDropped(context.Background(), EventTypeRemove)
		return
	}

	evt := &RemoveEvent{Type: EventTypeRemove, ID: id}

	b.mu.Lock()
	s := b.ensureLocked(sessionID)
	s.queue.push(evt)
	s.lastActive = time.Now()
	b.mu.Unlock()

	b.metrics.EventEmitted(context.Background(), EventTypeRemove)
	slog.Info("Removed UI component", "id", id, "session", sessionID)
}

// Subscription drains one session's events.
type Subscription struct {
	bus       *Bus
	sessionID string
	queue     *queue
	closeOnce sync.Once
}

// Subscribe attaches a consumer to the session, creating it if needed.
// The session is pinned against eviction until Close.
func (b *Bus) Subscribe(sessionID string) *Subscription {
	b.mu.Lock()
	s := b.ensureLocked(sessionID)
	s.subscribers++
	b.mu.Unlock()

	b.metrics.StreamOpened(context.Background())
	return &Subscription{bus: b, sessionID: sessionID, queue: s.queue}
}

// Next blocks until an event is available or the context ends.
func (s *Subscription) Next(ctx context.Context) (Event, error) {
	return s.queue.next(ctx)
}

// Close detaches the subscriber.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.bus.mu.Lock()
		if sess, ok := s.bus.sessions[s.sessionID]; ok {
			sess.subscribers--
			sess.lastActive = time.Now()
		}
		s.bus.mu.Unlock()
		s.bus.metrics.StreamClosed(context.Background())
	})
}

// SessionCount returns the number of live sessions.
func (b *Bus) SessionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

func (b *Bus) ensureLocked(sessionID string) *session {
	s, ok := b.sessions[sessionID]
	if !ok {
		s = &session{queue: newQueue(), lastActive: time.Now()}
		b.sessions[sessionID] = s
	}
	return s
}

func (b *Bus) evictLoop() {
	interval := b.ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.evictIdle()
		}
	}
}

func (b *Bus) evictIdle() {
	cutoff := time.Now().Add(-b.ttl)

	b.mu.Lock()
	for id, s := range b.sessions {
		if s.subscribers == 0 && s.lastActive.Before(cutoff) {
			delete(b.sessions, id)
			slog.Debug("Evicted idle UI session", "session", id, "pending", s.queue.len())
		}
	}
	b.mu.Unlock()
}
