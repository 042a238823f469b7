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

// Package functiontool creates tools from typed Go functions.
//
// The schema is generated from struct tags, so the function signature
// is the single source of truth for the tool's parameters:
//
//	type GetWeatherArgs struct {
//	    Location string `json:"location" jsonschema:"required,description=City name"`
//	}
//
//	weatherTool, err := functiontool.New(
//	    functiontool.Config{
//	        Name:        "get_weather",
//	        Description: "Get current weather for a city",
//	    },
//	    func(ctx tool.Context, args GetWeatherArgs) (map[string]any, error) {
//	        // Implementation
//	    },
//	)
package functiontool

import (
	"fmt"

	"github.com/kadirpekel/agentui/pkg/tool"
)

// Config defines the configuration for a function tool.
type Config struct {
	// Name is the unique identifier for this tool (required).
	Name string

	// Description explains what the tool does (required).
	// This is shown to the LLM to help it decide when to use the tool.
	Description string
}

// New creates a CallableTool from a typed function. The function
// signature must be:
//
//	func(tool.Context, Args) (map[string]any, error)
//
// where Args is a struct with json and jsonschema tags defining the
// parameters.
func New[Args any](cfg Config, fn func(tool.Context, Args) (map[string]any, error)) (tool.CallableTool, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	if cfg.Description == "" {
		return nil, fmt.Errorf("tool description is required for %s", cfg.Name)
	}
	if fn == nil {
		return nil, fmt.Errorf("tool function is required for %s", cfg.Name)
	}

	schema, err := generateSchema[Args]()
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema for %s: %w", cfg.Name, err)
	}

	return &functionTool[Args]{
		config: cfg,
		fn:     fn,
		schema: schema,
	}, nil
}

// functionTool implements tool.CallableTool by wrapping a typed function.
type functionTool[Args any] struct {
	config Config
	fn     func(tool.Context, Args) (map[string]any, error)
	schema map[string]any
}

func (t *functionTool[Args]) Name() string {
	return t.config.Name
}

func (t *functionTool[Args]) Description() string {
	return t.config.Description
}

func (t *functionTool[Args]) Schema() map[string]any {
	return t.schema
}

// Call converts the raw arguments to the typed struct and invokes the
// wrapped function.
func (t *functionTool[Args]) Call(ctx tool.Context, args map[string]any) (map[string]any, error) {
	var typedArgs Args
	if err := mapToStruct(args, &typedArgs); err != nil {
		return nil, fmt.Errorf("invalid arguments for %s: %w", t.config.Name, err)
	}

	return t.fn(ctx, typedArgs)
}
