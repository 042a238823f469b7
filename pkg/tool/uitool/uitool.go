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

// Package uitool provides the push_ui_message tool for LLM agents.
package uitool

import (
	"log/slog"

	"github.com/kadirpekel/agentui/pkg/tool"
	"github.com/kadirpekel/agentui/pkg/tool/functiontool"
	"github.com/kadirpekel/agentui/pkg/uibus"
)

// Args are the push_ui_message parameters. The graph name is baked in
// at construction so the LLM only specifies the component and props.
type Args struct {
	ComponentName string         `json:"component_name" jsonschema:"required,description=Name of the component to render"`
	Props         map[string]any `json:"props" jsonschema:"description=Props to pass to the component"`
}

// New creates a push_ui_message tool bound to a graph and event bus.
// Calling it streams a render event to the session and returns the UI
// payload for the agent's message history.
func New(graphName string, bus *uibus.Bus) (tool.CallableTool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "push_ui_message",
			Description: "Push a UI component to the frontend for graph '" + graphName + "'. Dynamically renders React components in the chat interface.",
		},
		func(ctx tool.Context, args Args) (map[string]any, error) {
			slog.Info("push_ui_message called",
				"component_name", args.ComponentName,
				"session", ctx.SessionID())

			id := bus.Emit(ctx.SessionID(), args.ComponentName, args.Props, "", false)

			return map[string]any{
				"graph_name":     graphName,
				"component_name": args.ComponentName,
				"props":          args.Props,
				"id":             id,
			}, nil
		},
	)
}
