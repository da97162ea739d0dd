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
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sirseerhq/sirseer-studio/internal/storeerror"
)

// RetryConfig configures the retry behavior for store operations
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts
	MaxRetries int
	// InitialBackoff is the initial backoff duration
	InitialBackoff time.Duration
	// MaxBackoff is the maximum backoff duration
	MaxBackoff time.Duration
	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    50 * time.Millisecond,
		MaxBackoff:        2 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryStore wraps a Store with automatic retry on lock contention using
// exponential backoff. Quota and other errors are returned immediately.
type RetryStore struct {
	store     Store
	config    *RetryConfig
	inspector storeerror.Inspector
	logger    *slog.Logger
}

// NewRetryStore creates a new RetryStore with the given configuration
func NewRetryStore(store Store, config *RetryConfig, logger *slog.Logger) *RetryStore {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryStore{
		store:     store,
		config:    config,
		inspector: storeerror.NewErrorChainInspector(storeerror.NewInspector()),
		logger:    logger,
	}
}

// Put implements Store with retry logic
func (r *RetryStore) Put(ctx context.Context, key, value string) error {
	return r.do(ctx, "put", key, func() error {
		return r.store.Put(ctx, key, value)
	})
}

// Get implements Store with retry logic
func (r *RetryStore) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := r.do(ctx, "get", key, func() error {
		var err error
		value, ok, err = r.store.Get(ctx, key)
		return err
	})
	return value, ok, err
}

// Delete implements Store with retry logic
func (r *RetryStore) Delete(ctx context.Context, key string) error {
	return r.do(ctx, "delete", key, func() error {
		return r.store.Delete(ctx, key)
	})
}

// Close closes the wrapped store.
func (r *RetryStore) Close() error {
	return r.store.Close()
}

func (r *RetryStore) do(ctx context.Context, op, key string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		// Don't retry on non-retryable errors
		if !r.inspector.IsBusyError(err) {
			return err
		}

		if attempt == r.config.MaxRetries {
			break
		}

		// Don't retry if context is cancelled
		if ctx.Err() != nil {
			return ctx.Err()
		}

		backoff := r.calculateBackoff(attempt)
		r.logger.Warn("kvstore: store busy, retrying",
			"op", op, "key", key, "backoff", backoff,
			"attempt", attempt+1, "max_retries", r.config.MaxRetries)

		// Wait with context cancellation support
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("failed after %d retries: %w", r.config.MaxRetries, lastErr)
}

// calculateBackoff calculates the backoff duration for the given attempt
func (r *RetryStore) calculateBackoff(attempt int) time.Duration {
	backoff := float64(r.config.InitialBackoff) * math.Pow(r.config.BackoffMultiplier, float64(attempt))

	// Apply max backoff limit
	if backoff > float64(r.config.MaxBackoff) {
		backoff = float64(r.config.MaxBackoff)
	}

	// Add jitter (±10%) so concurrent writers spread out
	jitter := backoff * 0.1 * (2*float64(time.Now().UnixNano()%100)/100 - 1)
	backoff += jitter

	return time.Duration(backoff)
}
