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
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	studioerrors "github.com/sirseerhq/sirseer-studio/internal/errors"
	"github.com/sirseerhq/sirseer-studio/internal/storeerror"
)

const fileSuffix = ".kv"

// FileStore keeps each key in its own file under a directory. Quota, when
// positive, bounds the size of a single value in bytes.
type FileStore struct {
	dir       string
	quota     int64
	inspector storeerror.Inspector
}

// NewFileStore creates a store rooted at dir, creating the directory if needed.
func NewFileStore(dir string, quota int64) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{
		dir:       dir,
		quota:     quota,
		inspector: storeerror.NewInspector(),
	}, nil
}

// Path returns the file backing key.
// Keys are made filesystem-safe and suffixed with a short hash so that keys
// differing only in replaced characters never collide.
func (s *FileStore) Path(key string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, key)
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, safe+"-"+hex.EncodeToString(sum[:4])+fileSuffix)
}

// Put atomically writes value using a write-to-temp-and-rename pattern.
func (s *FileStore) Put(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}
	if s.quota > 0 && int64(len(value)) > s.quota {
		return fmt.Errorf("%w: value for %q is %d bytes, quota is %d",
			studioerrors.ErrQuotaExceeded, key, len(value), s.quota)
	}

	target := s.Path(key)
	tempFile := target + ".tmp"

	// Write to temporary file with restricted permissions
	if err := os.WriteFile(tempFile, []byte(value), 0o600); err != nil {
		_ = os.Remove(tempFile)
		return s.classify(fmt.Errorf("failed to write temporary file: %w", err))
	}

	// Sync to ensure data is flushed to disk
	file, err := os.Open(tempFile)
	if err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to open temp file for sync: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tempFile)
		return s.classify(fmt.Errorf("failed to sync temp file: %w", err))
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempFile, target); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read value for %q: %w", key, err)
	}
	return string(data), true, nil
}

// Delete implements Store.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(s.Path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete value for %q: %w", key, err)
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}

// classify tags disk-full failures as quota errors.
func (s *FileStore) classify(err error) error {
	if s.inspector.IsQuotaError(err) {
		return fmt.Errorf("%w: %w", studioerrors.ErrQuotaExceeded, err)
	}
	return err
}
