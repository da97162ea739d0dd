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

package kvstore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sirseerhq/sirseer-studio/internal/config"
)

// Open builds the store selected by cfg. File and SQLite stores are wrapped
// in a RetryStore using cfg.MaxRetries.
func Open(cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	retry := DefaultRetryConfig()
	retry.MaxRetries = cfg.MaxRetries

	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStore(cfg.QuotaBytes), nil

	case config.BackendFile:
		store, err := NewFileStore(cfg.Path, cfg.QuotaBytes)
		if err != nil {
			return nil, err
		}
		return NewRetryStore(store, retry, logger), nil

	case config.BackendSQLite:
		path, err := sqlitePath(cfg.Path)
		if err != nil {
			return nil, err
		}
		store, err := OpenSQLite(path, cfg.QuotaBytes)
		if err != nil {
			return nil, err
		}
		return NewRetryStore(store, retry, logger), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// sqlitePath resolves the database file for path. A directory gets a
// studio.db file inside it; the parent directory is created when missing.
func sqlitePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, "studio.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return path, nil
}
