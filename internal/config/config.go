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

// Package config provides configuration management for sirseer-studio with
// support for multiple configuration sources and a well-defined precedence
// order.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Project-specific configuration
//  4. Global configuration file
//  5. Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from multiple sources and applies them in
// the correct precedence order. If configPath is provided, it loads from
// that specific file. Otherwise, it searches standard locations:
//   - .studio.yaml (current directory)
//   - .studio.yml (current directory)
//   - ~/.sirseer/studio.yaml
//   - ~/.sirseer/studio.yml
//
// Environment variables are applied after loading the config file, allowing
// runtime overrides. Path expansion (~ and environment variables) is performed
// on the storage path.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		defaultPaths := []string{
			".studio.yaml",
			".studio.yml",
			filepath.Join(os.Getenv("HOME"), ".sirseer", "studio.yaml"),
			filepath.Join(os.Getenv("HOME"), ".sirseer", "studio.yml"),
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	applyEnvOverrides(cfg)

	cfg.Storage.Path = expandPath(cfg.Storage.Path)

	return cfg, nil
}

// LoadConfigForProject loads configuration and applies project-specific
// overrides for the named project. An empty project name applies none.
func LoadConfigForProject(configPath, project string) (*Config, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if project == "" {
		return cfg, nil
	}

	if projectConfig, ok := cfg.Projects[project]; ok {
		if projectConfig.Key != "" {
			cfg.Storage.Key = projectConfig.Key
		}
		if projectConfig.HistoryLimit > 0 {
			cfg.History.Limit = projectConfig.HistoryLimit
		}
	} else {
		cfg.Storage.Key = cfg.Storage.Key + ":" + project
	}

	return cfg, nil
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	// Storage
	if backend := os.Getenv("STUDIO_STORE"); backend != "" {
		cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(backend))
	}
	if path := os.Getenv("STUDIO_STORE_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if key := os.Getenv("STUDIO_KEY"); key != "" {
		cfg.Storage.Key = key
	}
	if quota := os.Getenv("STUDIO_QUOTA_BYTES"); quota != "" {
		if n, err := parsePositiveInt(quota); err == nil {
			cfg.Storage.QuotaBytes = int64(n)
		}
	}
	if compress := os.Getenv("STUDIO_COMPRESS"); compress != "" {
		cfg.Storage.Compress = parseBool(compress)
	}

	// History
	if limit := os.Getenv("STUDIO_HISTORY_LIMIT"); limit != "" {
		if n, err := parsePositiveInt(limit); err == nil {
			cfg.History.Limit = n
		}
	}

	// Autosave
	if enabled := os.Getenv("STUDIO_AUTOSAVE_ENABLED"); enabled != "" {
		cfg.Autosave.Enabled = parseBool(enabled)
	}
	if debounce := os.Getenv("STUDIO_AUTOSAVE_DEBOUNCE"); debounce != "" {
		if d, err := parsePositiveDuration(debounce); err == nil {
			cfg.Autosave.Debounce = d
		}
	}
	if interval := os.Getenv("STUDIO_AUTOSAVE_INTERVAL"); interval != "" {
		if d, err := parsePositiveDuration(interval); err == nil {
			cfg.Autosave.Interval = d
		}
	}
	if timeout := os.Getenv("STUDIO_AUTOSAVE_TIMEOUT"); timeout != "" {
		if d, err := parsePositiveDuration(timeout); err == nil {
			cfg.Autosave.Timeout = d
		}
	}

	// Logging
	if level := os.Getenv("STUDIO_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if format := os.Getenv("STUDIO_LOG_FORMAT"); format != "" {
		cfg.Log.Format = format
	}
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			home = os.Getenv("USERPROFILE") // Windows
		}
		path = filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// parsePositiveInt parses a string to a positive integer
func parsePositiveInt(s string) (int, error) {
	var i int
	_, err := fmt.Sscanf(s, "%d", &i)
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

// parsePositiveDuration accepts Go duration syntax ("2500ms", "2m") or a
// bare integer number of milliseconds.
func parsePositiveDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	d, err := time.ParseDuration(s)
	if err != nil {
		ms, intErr := parsePositiveInt(s)
		if intErr != nil {
			return 0, fmt.Errorf("failed to parse duration from '%s': %w", s, err)
		}
		d = time.Duration(ms) * time.Millisecond
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got: %s", d)
	}
	return d, nil
}

// parseBool parses various boolean representations
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}

// GetHistoryLimit returns the effective history limit for a project, taking
// into account project-specific overrides.
func (c *Config) GetHistoryLimit(project string) int {
	if projectConfig, ok := c.Projects[project]; ok && projectConfig.HistoryLimit > 0 {
		return projectConfig.HistoryLimit
	}
	return c.History.Limit
}

// Validate checks if the configuration contains valid values. This should be
// called after loading configuration to catch invalid settings early.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q (want memory, file or sqlite)", c.Storage.Backend)
	}
	if c.Storage.Backend != BackendMemory && c.Storage.Path == "" {
		return fmt.Errorf("storage path cannot be empty for the %s backend", c.Storage.Backend)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("storage key cannot be empty")
	}
	if c.Storage.QuotaBytes < 0 {
		return fmt.Errorf("storage quota must not be negative, got: %d", c.Storage.QuotaBytes)
	}
	if c.Storage.MaxRetries < 0 {
		return fmt.Errorf("storage max retries must not be negative, got: %d", c.Storage.MaxRetries)
	}
	if c.History.Limit < 1 {
		return fmt.Errorf("history limit must be at least 1, got: %d", c.History.Limit)
	}
	if c.Autosave.Debounce <= 0 {
		return fmt.Errorf("autosave debounce must be positive, got: %s", c.Autosave.Debounce)
	}
	if c.Autosave.Interval <= 0 {
		return fmt.Errorf("autosave interval must be positive, got: %s", c.Autosave.Interval)
	}
	if c.Autosave.Timeout <= 0 {
		return fmt.Errorf("autosave timeout must be positive, got: %s", c.Autosave.Timeout)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.Log.Format)
	}
	return nil
}
