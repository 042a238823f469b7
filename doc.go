// Package agentui provides generative UI streaming for agent backends.
//
// An agent tool call can push live-updating visual components into a chat
// frontend: the server bundles a React component module into a single
// browser-loadable script on demand (cached by content hash), and multiplexes
// per-session event streams so that "render", "update props", and "remove"
// instructions reach a connected browser over a persistent SSE connection.
//
// # Quick Start
//
// Install the server:
//
//	go install github.com/kadirpekel/agentui/cmd/agentui@latest
//
// Create a configuration:
//
//	ui:
//	  graph_name: "weather_app"
//	  path: "./ui/index.tsx"
//	server:
//	  host: "0.0.0.0"
//	  port: 8080
//
// Start it:
//
//	agentui serve --config agentui.yaml
//
// # Using as Go Library
//
// Import specific packages:
//
//	import (
//	    "github.com/kadirpekel/agentui/pkg/bundler"
//	    "github.com/kadirpekel/agentui/pkg/uibus"
//	    "github.com/kadirpekel/agentui/pkg/server"
//	)
//
// The typical flow: construct a bundler.Bundler and a uibus.Bus, hand both to
// server.New, and register the tools from pkg/tool with your agent runtime.
// The runtime supplies the session identifier through tool.Context; the bus
// delivers every emitted event, in order, to the browser attached to that
// session via GET /ui/stream.
package agentui
