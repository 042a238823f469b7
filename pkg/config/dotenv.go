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
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from .env files.
//
// Search order (first found wins):
//  1. Explicit paths if provided
//  2. .env in the current directory
//  3. .env in the home directory
//
// Existing environment variables are NOT overwritten.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if path != "" {
			if err := loadIfExists(path); err != nil {
				return err
			}
		}
	}

	if err := loadIfExists(".env"); err != nil {
		return err
	}

	if home, err := os.UserHomeDir(); err == nil {
		if err := loadIfExists(filepath.Join(home, ".env")); err != nil {
			return err
		}
	}

	return nil
}

// LoadDotEnvForConfig loads .env from the config file's directory first.
func LoadDotEnvForConfig(configPath string) error {
	if configPath == "" {
		return LoadDotEnv()
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return LoadDotEnv()
	}

	return LoadDotEnv(filepath.Join(filepath.Dir(absPath), ".env"))
}

// loadIfExists loads a .env file if it exists.
func loadIfExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		// .env is optional; log and continue.
		slog.Debug("Failed to load .env file", "path", path, "error", err)
		return nil
	}

	slog.Debug("Loaded environment from .env", "path", path)
	return nil
}
