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

// Package bundler compiles UI component entry files into self-contained
// browser bundles with esbuild.
//
// Bundles are cached in memory by content hash, so repeated requests for
// an unchanged component never touch the toolchain. Concurrent requests
// for the same cache key are collapsed into a single build.
package bundler

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kadirpekel/agentui/pkg/observability"
)

var nonIdentifierChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SanitizeName converts a graph name into a valid JS identifier fragment.
// Every character outside [a-zA-Z0-9] becomes an underscore.
func SanitizeName(name string) string {
	return nonIdentifierChars.ReplaceAllString(name, "_")
}

// Bundler builds and caches UI component bundles.
type Bundler struct {
	env     string
	target  string
	esbuild []string
	metrics observability.Recorder

	mu    sync.RWMutex
	cache map[string]string
	group singleflight.Group

	// buildFn runs the toolchain. Overridable in tests.
	buildFn func(ctx context.Context, entry string) (string, error)
}

// Option configures a Bundler.
type Option func(*Bundler)

// WithEnv sets the build environment (dev or prod). Part of the cache key.
func WithEnv(env string) Option {
	return func(b *Bundler) { b.env = env }
}

// WithTarget sets the esbuild JS target. Part of the cache key.
func WithTarget(target string) Option {
	return func(b *Bundler) { b.target = target }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r observability.Recorder) Option {
	return func(b *Bundler) { b.metrics = r }
}

// WithEsbuildCommand overrides esbuild auto-detection.
func WithEsbuildCommand(cmd ...string) Option {
	return func(b *Bundler) { b.esbuild = cmd }
}

// New creates a Bundler. esbuild is located on PATH, falling back to
// "npx esbuild"; its absence is only an error once a build is attempted.
func New(opts ...Option) *Bundler {
	b := &Bundler{
		env:     "dev",
		target:  "es2020",
		esbuild: detectEsbuild(),
		metrics: observability.Noop{},
		cache:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.buildFn = b.runEsbuild
	return b
}

// Bundle compiles the component at path into a loadable script that
// installs window.__AGUI_<graphName>. Results are cached; identical
// concurrent requests share one build.
func (b *Bundler) Bundle(ctx context.Context, graphName, componentPath string) (string, error) {
	entry, err := filepath.Abs(componentPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve component path %s: %w", componentPath, err)
	}

	info, err := os.Stat(entry)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, entry)
	}

	fileHash, err := hashFile(entry)
	if err != nil {
		return "", fmt.Errorf("failed to hash component %s: %w", entry, err)
	}

	key := b.cacheKey(fileHash, graphName)

	b.mu.RLock()
	cached, ok := b.cache[key]
	b.mu.RUnlock()
	if ok {
		slog.Debug("Using cached bundle", "graph_name", graphName, "path", entry)
		b.metrics.BundleCacheHit(ctx, graphName)
		return cached, nil
	}

	result, err, _ := b.group.Do(key, func() (interface{}, error) {
		// Re-check under the group: a racing caller may have stored
		// the bundle between our read and the flight starting.
		b.mu.RLock()
		cached, ok := b.cache[key]
		b.mu.RUnlock()
		if ok {
			return cached, nil
		}

		start := time.Now()
		// Detach the build from the winning request's context: other
		// callers share this flight, so one client disconnecting must
		// not fail the build for everyone.
		code, err := b.buildFn(context.WithoutCancel(ctx), entry)
		b.metrics.BundleBuilt(ctx, graphName, time.Since(start), err == nil)
		if err != nil {
			return nil, err
		}

		wrapped := b.wrapBundle(graphName, code)

		b.mu.Lock()
		b.cache[key] = wrapped
		b.mu.Unlock()

		slog.Info("Bundled UI component",
			"graph_name", graphName,
			"path", entry,
			"duration", time.Since(start))
		return wrapped, nil
	})
	if err != nil {
		return "", err
	}

	return result.(string), nil
}

// Invalidate drops all cached bundles. The next Bundle call rebuilds.
func (b *Bundler) Invalidate() {
	b.mu.Lock()
	b.cache = make(map[string]string)
	b.mu.Unlock()
	slog.Info("Bundle cache invalidated")
}

// cacheKey mixes the component content hash with everything that can
// change the build's output.
func (b *Bundler) cacheKey(fileHash, graphName string) string {
	fingerprint := fmt.Sprintf("%s|%s|%s", strings.Join(b.esbuild, " "), b.env, b.target)
	sum := sha256.Sum256([]byte(fileHash + fingerprint + graphName))
	return hex.EncodeToString(sum[:])
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func detectEsbuild() []string {
	if path, err := exec.LookPath("esbuild"); err == nil {
		return []string{path}
	}
	if path, err := exec.LookPath("npx"); err == nil {
		return []string{path, "esbuild"}
	}
	return nil
}

// runEsbuild compiles the entry file through a temporary wrapper that
// pins React and ReactDOM into the bundle.
func (b *Bundler) runEsbuild(ctx context.Context, entry string) (string, error) {
	if len(b.esbuild) == 0 {
		return "", &BuildError{Err: fmt.Errorf(
			"esbuild is required to bundle UI components, install it with: npm install -g esbuild")}
	}

	componentDir := filepath.Dir(entry)
	wrapperEntry := filepath.Join(componentDir, ".agentui_entry_temp.jsx")

	wrapperSrc := fmt.Sprintf(`
import React from 'react';
import ReactDOM from 'react-dom/client';
import components from './%s';

export { React, ReactDOM };
export default components;
`, filepath.Base(entry))

	if err := os.WriteFile(wrapperEntry, []byte(wrapperSrc), 0o644); err != nil {
		return "", &BuildError{Err: fmt.Errorf("failed to write wrapper entry: %w", err)}
	}
	defer os.Remove(wrapperEntry)

	outDir, err := os.MkdirTemp("", "agentui-bundle-")
	if err != nil {
		return "", &BuildError{Err: fmt.Errorf("failed to create temp dir: %w", err)}
	}
	defer os.RemoveAll(outDir)

	outFile := filepath.Join(outDir, "bundle.js")

	args := make([]string, 0, len(b.esbuild)+8)
	args = append(args, b.esbuild[1:]...)
	args = append(args,
		wrapperEntry,
		"--bundle",
		"--format=iife",
		"--global-name=__AGENTUI_COMPONENT__",
		"--target="+b.target,
		"--platform=browser",
		"--jsx=automatic",
		"--outfile="+outFile,
	)

	slog.Debug("Running esbuild", "cmd", b.esbuild[0], "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, b.esbuild[0], args...)
	cmd.Dir = componentDir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		return "", &BuildError{Output: output.String(), Err: fmt.Errorf("esbuild failed: %w", err)}
	}

	code, err := os.ReadFile(outFile)
	if err != nil {
		return "", &BuildError{Err: fmt.Errorf("failed to read bundle output: %w", err)}
	}

	return string(code), nil
}

// wrapBundle attaches the rendering interface to the raw bundle. The
// resulting script installs window.__AGUI_<name> with a render function
// that mounts a component into a shadow root claimed from the global
// mount registry.
func (b *Bundler) wrapBundle(graphName, bundledCode string) string {
	return fmt.Sprintf(`
// agentui component wrapper for %s
%s

// Initialize global mount registry
window.__AGENTUI_MOUNTS__ = window.__AGENTUI_MOUNTS__ || new Map();

// Create the rendering interface
window.__AGUI_%s = {
  render: function(componentName, shadowRootId, componentProps) {
    try {
      var React = __AGENTUI_COMPONENT__.React;
      var ReactDOM = __AGENTUI_COMPONENT__.ReactDOM;

      if (!React || !ReactDOM) {
        console.error('[agentui] React/ReactDOM not found in bundle');
        return;
      }

      var components = __AGENTUI_COMPONENT__.default || __AGENTUI_COMPONENT__;
      var Component = components[componentName];

      if (!Component) {
        console.error('[agentui] Component "' + componentName + '" not found. Available:', Object.keys(components));
        return;
      }

      // Resolve the shadow root from the registry, not the DOM, so a
      // React unmount racing this render cannot hand back a stale node.
      var shadowRoot = window.__AGENTUI_MOUNTS__.get(shadowRootId);

      if (!shadowRoot) {
        console.error('[agentui] Mount not found in registry: ' + shadowRootId);
        return;
      }

      // Clear any existing content to prevent duplicate renders
      shadowRoot.innerHTML = '';

      var container = document.createElement('div');
      shadowRoot.appendChild(container);

      var root = ReactDOM.createRoot(container);
      root.render(React.createElement(Component, componentProps || {}));

      // Mounts are single use
      window.__AGENTUI_MOUNTS__.delete(shadowRootId);
    } catch (error) {
      console.error('[agentui] Error rendering component:', error);
    }
  }
};
`, graphName, bundledCode, SanitizeName(graphName))
}
