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

// Command agentui serves bundled UI components and per-session event
// streams for agent frontends.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/kadirpekel/agentui"
	"github.com/kadirpekel/agentui/pkg/bundler"
	"github.com/kadirpekel/agentui/pkg/config"
	"github.com/kadirpekel/agentui/pkg/logger"
	"github.com/kadirpekel/agentui/pkg/observability"
	"github.com/kadirpekel/agentui/pkg/server"
	"github.com/kadirpekel/agentui/pkg/tool/uitool"
	"github.com/kadirpekel/agentui/pkg/tool/weathertool"
	"github.com/kadirpekel/agentui/pkg/uibus"
)

type cli struct {
	Config    string `short:"c" type:"path" default:"agentui.yaml" help:"Path to the config file."`
	LogLevel  string `help:"Log level (debug|info|warn|error). Overrides config."`
	LogFormat string `help:"Log format (simple|text). Overrides config."`

	Serve   serveCmd   `cmd:"" default:"1" help:"Start the UI server."`
	Version versionCmd `cmd:"" help:"Print the version."`
}

type versionCmd struct{}

func (v *versionCmd) Run() error {
	fmt.Println("agentui " + agentui.Version)
	return nil
}

type serveCmd struct {
	Watch     bool `help:"Watch the component file and invalidate the bundle cache on change."`
	NoPreload bool `help:"Skip pre-bundling the component at startup."`
}

func (s *serveCmd) Run(flags *cli) error {
	if err := config.LoadDotEnvForConfig(flags.Config); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(flags.Config)
	if err != nil {
		return err
	}

	logLevel := cfg.Logging.Level
	if flags.LogLevel != "" {
		logLevel = flags.LogLevel
	}
	logFormat := cfg.Logging.Format
	if flags.LogFormat != "" {
		logFormat = flags.LogFormat
	}
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger.Init(level, os.Stderr, logFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var recorder observability.Recorder = observability.Noop{}
	var serverOpts []server.Option
	if cfg.Metrics.Enabled {
		metrics, err := observability.NewMetrics()
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		defer func() {
			if err := metrics.Shutdown(context.Background()); err != nil {
				slog.Warn("Failed to shut down metrics", "error", err)
			}
		}()
		recorder = metrics
		serverOpts = append(serverOpts, server.WithMetricsHandler(metrics.Handler()))
	}

	b := bundler.New(
		bundler.WithEnv(cfg.Build.Env),
		bundler.WithTarget(cfg.Build.Target),
		bundler.WithMetrics(recorder),
	)

	bus := uibus.New(cfg.UI.GraphName,
		uibus.WithTTL(cfg.Server.SessionTTL),
		uibus.WithMetrics(recorder),
	)
	defer bus.Close()

	pushTool, err := uitool.New(cfg.UI.GraphName, bus)
	if err != nil {
		return err
	}
	weatherTool, err := weathertool.New(bus)
	if err != nil {
		return err
	}
	slog.Info("Agent tools available", "tools", []string{pushTool.Name(), weatherTool.Name()})

	if s.Watch {
		watcher, err := bundler.NewWatcher(b, cfg.UI.ResolvedPath())
		if err != nil {
			return fmt.Errorf("failed to start component watcher: %w", err)
		}
		defer watcher.Close()
		go func() {
			_ = watcher.Run(ctx)
		}()
		slog.Info("Watching UI component", "path", cfg.UI.ResolvedPath())
	}

	srv := server.New(cfg, b, bus, serverOpts...)

	if !s.NoPreload {
		srv.Preload(ctx)
	}

	return srv.Start(ctx)
}

func main() {
	var flags cli
	ctx := kong.Parse(&flags,
		kong.Name("agentui"),
		kong.Description("UI component streaming and bundling server for agent frontends."),
		kong.UsageOnError(),
	)

	err := ctx.Run(&flags)
	ctx.FatalIfErrorf(err)
}
