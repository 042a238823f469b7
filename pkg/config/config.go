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

// Package config defines the agentui configuration model.
//
// Configuration is declared in YAML, expanded against the environment
// (${VAR} references), and validated before use:
//
//	ui:
//	  graph_name: "weather_app"
//	  path: "./ui/index.tsx"
//	server:
//	  host: "0.0.0.0"
//	  port: 8080
//	  session_ttl: 1h
//	metrics:
//	  enabled: true
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	UI      UIConfig      `yaml:"ui"`
	Server  ServerConfig  `yaml:"server"`
	Build   BuildConfig   `yaml:"build"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// DefaultSession is the fallback session id used when a request
	// carries neither an X-Session-ID header nor a session query param.
	DefaultSession string `yaml:"default_session"`

	// SessionTTL is how long an idle session (no attached stream, no
	// activity) is kept before eviction. Zero disables eviction.
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// Address returns the host:port the server listens on.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SetDefaults applies default server settings.
func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.DefaultSession == "" {
		c.DefaultSession = "default"
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = time.Hour
	}
}

// BuildConfig configures the component build environment.
// Both fields feed the bundle cache key, so changing either forces a rebuild.
type BuildConfig struct {
	// Env is the build mode (dev or prod). Defaults to $AGENTUI_ENV or "dev".
	Env string `yaml:"env"`

	// Target is the esbuild JS target. Defaults to $AGENTUI_TARGET or "es2020".
	Target string `yaml:"target"`
}

// SetDefaults applies build defaults from the environment.
func (c *BuildConfig) SetDefaults() {
	if c.Env == "" {
		c.Env = os.Getenv("AGENTUI_ENV")
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.Target == "" {
		c.Target = os.Getenv("AGENTUI_TARGET")
	}
	if c.Target == "" {
		c.Target = "es2020"
	}
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// SetDefaults applies metrics defaults.
func (c *MetricsConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "/metrics"
	}
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SetDefaults applies logging defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "simple"
	}
}

// SetDefaults applies defaults to all sections.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Build.SetDefaults()
	c.Metrics.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks the configuration for completeness.
func (c *Config) Validate() error {
	if c.UI.GraphName == "" {
		return fmt.Errorf("ui.graph_name is required")
	}
	if c.UI.Path == "" {
		return fmt.Errorf("ui.path is required")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// Load reads, expands, and validates a YAML config file.
// ${VAR} references in the file are expanded from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}
