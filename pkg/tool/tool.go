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

// Package tool defines interfaces for tools that agents can invoke.
//
// Tools run inside an agent turn and carry the turn's session id, so
// UI events they emit reach the right event stream. Use functiontool
// to build a CallableTool from a typed Go function.
package tool

import "context"

// Tool defines the base interface for a callable tool.
type Tool interface {
	// Name returns the unique name of the tool.
	Name() string

	// Description returns a human-readable description of what the tool does.
	// Used by LLMs to decide when to use this tool.
	Description() string
}

// CallableTool extends Tool with synchronous execution capability.
type CallableTool interface {
	Tool

	// Call executes the tool with the given arguments.
	// This is a blocking call that waits for completion.
	Call(ctx Context, args map[string]any) (map[string]any, error)

	// Schema returns the JSON schema for the tool's parameters.
	// Returns nil if the tool takes no parameters.
	Schema() map[string]any
}

// Context provides the execution context for a tool invocation.
type Context interface {
	context.Context

	// SessionID identifies the session this invocation belongs to.
	// Empty when the invocation is not bound to a session.
	SessionID() string
}

type toolContext struct {
	context.Context
	sessionID string
}

func (c *toolContext) SessionID() string { return c.sessionID }

// NewContext binds a session id to a parent context for a tool call.
func NewContext(parent context.Context, sessionID string) Context {
	if parent == nil {
		parent = context.Background()
	}
	return &toolContext{Context: parent, sessionID: sessionID}
}
