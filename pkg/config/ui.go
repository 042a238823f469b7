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

package config

import (
	"os"
	"path/filepath"
)

// UIConfig identifies one UI component module served by this process.
type UIConfig struct {
	// GraphName is the stable logical name for the bundle.
	GraphName string `yaml:"graph_name"`

	// Path is the component entry file (.tsx/.jsx/.ts/.js),
	// absolute or relative.
	Path string `yaml:"path"`
}

// ResolvedPath returns the absolute location of the component entry file.
//
// Resolution order: the path as given if absolute, then relative to the
// working directory, then relative to the executable's directory. If none
// exists, the absolute form of the given path is returned so the caller's
// existence check fails with a meaningful location.
func (c *UIConfig) ResolvedPath() string {
	if filepath.IsAbs(c.Path) {
		return c.Path
	}

	if cwd, err := os.Getwd(); err == nil {
		resolved := filepath.Join(cwd, c.Path)
		if fileExists(resolved) {
			return resolved
		}
	}

	if exe, err := os.Executable(); err == nil {
		resolved := filepath.Join(filepath.Dir(exe), c.Path)
		if fileExists(resolved) {
			return resolved
		}
	}

	abs, err := filepath.Abs(c.Path)
	if err != nil {
		return c.Path
	}
	return abs
}

// Exists reports whether the component entry file is present.
func (c *UIConfig) Exists() bool {
	return fileExists(c.ResolvedPath())
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
