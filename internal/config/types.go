// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config types define the configuration structures used throughout
// sirseer-studio. These types represent settings that can be loaded from
// YAML configuration files, environment variables, or command-line flags.
package config

import "time"

// Storage backend names accepted in StorageConfig.Backend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config represents the complete configuration for sirseer-studio.
// It consolidates settings from various sources and provides a unified
// interface for accessing configuration values throughout the application.
type Config struct {
	Storage  StorageConfig            `yaml:"storage"`
	History  HistoryConfig            `yaml:"history"`
	Autosave AutosaveConfig           `yaml:"autosave"`
	Log      LogConfig                `yaml:"log"`
	Projects map[string]ProjectConfig `yaml:"projects"`
}

// StorageConfig selects and tunes the durable store holding saved projects.
// Path is a directory for the file backend and a database file for sqlite;
// it is ignored by the memory backend.
type StorageConfig struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	Key        string `yaml:"key"`
	QuotaBytes int64  `yaml:"quota_bytes"`
	Compress   bool   `yaml:"compress"`
	MaxRetries int    `yaml:"max_retries"`
}

// HistoryConfig bounds the undo/redo history.
type HistoryConfig struct {
	Limit int `yaml:"limit"`
}

// AutosaveConfig controls the dual-trigger autosave pipeline. Debounce is the
// quiet period after a change before a save runs; Interval is the fixed
// period of the unconditional save; Timeout bounds a single save.
type AutosaveConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LogConfig selects the slog handler and level.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ProjectConfig contains per-project overrides, keyed by project name. This
// lets several projects share one store under distinct keys, each with its
// own history depth.
type ProjectConfig struct {
	Key          string `yaml:"key"`
	HistoryLimit int    `yaml:"history_limit"`
}

// DefaultConfig returns a Config with sensible defaults suitable for most
// use cases.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:    BackendFile,
			Path:       "~/.sirseer/studio",
			Key:        "studio:project",
			QuotaBytes: 5 * 1024 * 1024,
			MaxRetries: 3,
		},
		History: HistoryConfig{
			Limit: 50,
		},
		Autosave: AutosaveConfig{
			Enabled:  true,
			Debounce: 2500 * time.Millisecond,
			Interval: 120000 * time.Millisecond,
			Timeout:  30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Projects: make(map[string]ProjectConfig),
	}
}
