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

// Package weathertool provides the demo get_weather tool.
//
// It shows the two-phase streaming pattern: a skeleton card is emitted
// before the lookup so the UI appears instantly, then real data is
// merged into the same component once available.
package weathertool

import (
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/kadirpekel/agentui/pkg/tool"
	"github.com/kadirpekel/agentui/pkg/tool/functiontool"
	"github.com/kadirpekel/agentui/pkg/uibus"
)

// Args are the get_weather parameters.
type Args struct {
	Location string `json:"location" jsonschema:"required,description=The city name"`
}

// ComponentID returns the stable component instance id for a location,
// so skeleton and data updates target the same card.
func ComponentID(location string) string {
	return "weather-" + strings.ToLower(location)
}

// New creates a get_weather tool bound to an event bus. Weather data is
// mocked with a random temperature.
func New(bus *uibus.Bus) (tool.CallableTool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "get_weather",
			Description: "Get weather information for a location",
		},
		func(ctx tool.Context, args Args) (map[string]any, error) {
			slog.Info("get_weather called", "location", args.Location, "session", ctx.SessionID())

			id := ComponentID(args.Location)

			// Skeleton first so the card shows up before the lookup.
			bus.Emit(ctx.SessionID(), "weather", map[string]any{
				"location": args.Location,
				"temp":     "Loading...",
			}, id, false)

			temp := rand.IntN(26) + 45

			bus.Emit(ctx.SessionID(), "weather", map[string]any{
				"location": args.Location,
				"temp":     temp,
			}, id, true)

			return map[string]any{
				"location":    args.Location,
				"temperature": temp,
				"status":      "success",
			}, nil
		},
	)
}
