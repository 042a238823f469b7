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

package functiontool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentui/pkg/tool"
)

type echoArgs struct {
	Message string `json:"message" jsonschema:"required,description=Message to echo"`
	Count   int    `json:"count,omitempty" jsonschema:"description=Repeat count"`
}

func newEchoTool(t *testing.T) tool.CallableTool {
	t.Helper()
	echo, err := New(
		Config{Name: "echo", Description: "Echo a message"},
		func(ctx tool.Context, args echoArgs) (map[string]any, error) {
			return map[string]any{"message": args.Message, "count": args.Count, "session": ctx.SessionID()}, nil
		},
	)
	require.NoError(t, err)
	return echo
}

func TestNewRequiresConfig(t *testing.T) {
	fn := func(ctx tool.Context, args echoArgs) (map[string]any, error) { return nil, nil }

	_, err := New(Config{Description: "d"}, fn)
	assert.Error(t, err)

	_, err = New(Config{Name: "n"}, fn)
	assert.Error(t, err)

	_, err = New[echoArgs](Config{Name: "n", Description: "d"}, nil)
	assert.Error(t, err)
}

func TestCallWithTypedArgs(t *testing.T) {
	echo := newEchoTool(t)

	ctx := tool.NewContext(context.Background(), "s1")
	result, err := echo.Call(ctx, map[string]any{"message": "hello", "count": 3})
	require.NoError(t, err)

	assert.Equal(t, "hello", result["message"])
	assert.Equal(t, 3, result["count"])
	assert.Equal(t, "s1", result["session"])
}

func TestCallRejectsWrongTypes(t *testing.T) {
	echo := newEchoTool(t)

	ctx := tool.NewContext(context.Background(), "s1")
	_, err := echo.Call(ctx, map[string]any{"message": "hello", "count": "three"})
	assert.Error(t, err)
}

func TestSchemaGeneration(t *testing.T) {
	echo := newEchoTool(t)

	schema := echo.Schema()
	require.NotNil(t, schema)
	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "message")
	assert.Contains(t, props, "count")

	required, ok := schema["required"].([]any)
	require.True(t, ok)
	assert.Contains(t, required, "message")
	assert.NotContains(t, required, "count")
}

func TestToolMetadata(t *testing.T) {
	echo := newEchoTool(t)
	assert.Equal(t, "echo", echo.Name())
	assert.Equal(t, "Echo a message", echo.Description())
}
