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

// Package uibus delivers UI events to per-session subscribers.
//
// Producers (agent tools) emit render and remove events addressed to a
// session; a single SSE subscriber per session drains them in FIFO
// order. Queues are unbounded so producers never block.
package uibus

// Event type discriminators as they appear on the wire.
const (
	EventTypeRender = "ui"
	EventTypeRemove = "remove-ui"
)

// Event is a UI event addressed to one session. It is a sealed union of
// RenderEvent and RemoveEvent.
type Event interface {
	// EventID is the stable component instance id the event targets.
	EventID() string

	// Kind is the wire-level type discriminator.
	Kind() string

	isEvent()
}

// RenderEvent instructs the client to render a component, or to merge
// new props into an already rendered instance when Merge is set.
type RenderEvent struct {
	Type          string         `json:"type"`
	ID            string         `json:"id"`
	GraphName     string         `json:"graph_name"`
	ComponentName string         `json:"component_name"`
	Props         map[string]any `json:"props"`
	Merge         bool           `json:"merge"`
}

func (e *RenderEvent) EventID() string { return e.ID }
func (e *RenderEvent) Kind() string    { return EventTypeRender }
func (e *RenderEvent) isEvent()        {}

// RemoveEvent instructs the client to unmount a component instance.
// It deliberately carries no merge or props fields.
type RemoveEvent struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (e *RemoveEvent) EventID() string { return e.ID }
func (e *RemoveEvent) Kind() string    { return EventTypeRemove }
func (e *RemoveEvent) isEvent()        {}
