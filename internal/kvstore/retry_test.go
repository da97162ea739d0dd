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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirseerhq/sirseer-studio/internal/config"
	studioerrors "github.com/sirseerhq/sirseer-studio/internal/errors"
)

// flakyStore fails the first failures calls with failureError.
type flakyStore struct {
	*MemoryStore
	attempts     int
	failures     int
	failureError error
}

func (f *flakyStore) Put(ctx context.Context, key, value string) error {
	f.attempts++
	if f.attempts <= f.failures {
		return f.failureError
	}
	return f.MemoryStore.Put(ctx, key, value)
}

func (f *flakyStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.attempts++
	if f.attempts <= f.failures {
		return "", false, f.failureError
	}
	return f.MemoryStore.Get(ctx, key)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastRetry(maxRetries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries:        maxRetries,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestRetryStore_BusyRetry(t *testing.T) {
	busy := errors.New("database is locked (5) (SQLITE_BUSY)")

	tests := []struct {
		name             string
		failures         int
		maxRetries       int
		expectError      bool
		expectedAttempts int
	}{
		{
			name:             "succeeds after one retry",
			failures:         1,
			maxRetries:       3,
			expectError:      false,
			expectedAttempts: 2,
		},
		{
			name:             "succeeds after max retries",
			failures:         3,
			maxRetries:       3,
			expectError:      false,
			expectedAttempts: 4,
		},
		{
			name:             "fails after max retries exceeded",
			failures:         5,
			maxRetries:       2,
			expectError:      true,
			expectedAttempts: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &flakyStore{MemoryStore: NewMemoryStore(0), failures: tt.failures, failureError: busy}
			store := NewRetryStore(inner, fastRetry(tt.maxRetries), quietLogger())

			err := store.Put(context.Background(), "k", "v")
			if (err != nil) != tt.expectError {
				t.Errorf("Put() error = %v, expectError %v", err, tt.expectError)
			}
			if inner.attempts != tt.expectedAttempts {
				t.Errorf("attempts = %d, want %d", inner.attempts, tt.expectedAttempts)
			}
		})
	}
}

func TestRetryStore_NoRetryOnQuota(t *testing.T) {
	quotaErr := fmt.Errorf("put: %w", studioerrors.ErrQuotaExceeded)
	inner := &flakyStore{MemoryStore: NewMemoryStore(0), failures: 5, failureError: quotaErr}
	store := NewRetryStore(inner, fastRetry(3), quietLogger())

	err := store.Put(context.Background(), "k", "v")
	if !errors.Is(err, studioerrors.ErrQuotaExceeded) {
		t.Errorf("Put() error = %v, want ErrQuotaExceeded", err)
	}
	if inner.attempts != 1 {
		t.Errorf("attempts = %d, want 1", inner.attempts)
	}
}

func TestRetryStore_GetRetries(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore(0), failures: 1, failureError: errors.New("database is locked")}
	if err := inner.MemoryStore.Put(context.Background(), "k", "v"); err != nil {
		t.Fatalf("seed Put failed: %v", err)
	}
	store := NewRetryStore(inner, fastRetry(2), quietLogger())

	value, ok, err := store.Get(context.Background(), "k")
	if err != nil || !ok || value != "v" {
		t.Errorf("Get() = %q, %v, %v", value, ok, err)
	}
}

func TestRetryStore_ContextCancellation(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore(0), failures: 10, failureError: errors.New("database is locked")}
	store := NewRetryStore(inner, &RetryConfig{
		MaxRetries:        5,
		InitialBackoff:    time.Second,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 1,
	}, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := store.Put(ctx, "k", "v")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Put() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestCalculateBackoff(t *testing.T) {
	store := NewRetryStore(NewMemoryStore(0), &RetryConfig{
		MaxRetries:        5,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
	}, quietLogger())

	tests := []struct {
		attempt int
		base    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{5, time.Second},
	}

	for _, tt := range tests {
		got := store.calculateBackoff(tt.attempt)
		low := time.Duration(float64(tt.base) * 0.89)
		high := time.Duration(float64(tt.base) * 1.11)
		if got < low || got > high {
			t.Errorf("calculateBackoff(%d) = %v, want within 10%% of %v", tt.attempt, got, tt.base)
		}
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.StorageConfig
		wantErr bool
	}{
		{"memory", config.StorageConfig{Backend: config.BackendMemory}, false},
		{"file", config.StorageConfig{Backend: config.BackendFile, Path: filepath.Join(dir, "files")}, false},
		{"sqlite file", config.StorageConfig{Backend: config.BackendSQLite, Path: filepath.Join(dir, "db", "studio.db")}, false},
		{"sqlite directory", config.StorageConfig{Backend: config.BackendSQLite, Path: dir}, false},
		{"unknown", config.StorageConfig{Backend: "redis"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(tt.cfg, quietLogger())
			if tt.wantErr {
				if err == nil {
					t.Fatal("Open() error = nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer store.Close()

			ctx := context.Background()
			if err := store.Put(ctx, "k", "v"); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			if value, ok, err := store.Get(ctx, "k"); err != nil || !ok || value != "v" {
				t.Errorf("Get = %q, %v, %v", value, ok, err)
			}
		})
	}
}
