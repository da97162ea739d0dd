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
	"sync"

	studioerrors "github.com/sirseerhq/sirseer-studio/internal/errors"
)

// MemoryStore is an in-memory Store. Quota, when positive, bounds the sum of
// key and value lengths across all entries, in bytes.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]string
	size    int64
	quota   int64
}

// NewMemoryStore creates an empty store. A quota of zero means unbounded.
func NewMemoryStore(quota int64) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]string),
		quota:   quota,
	}
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	size := s.size + entrySize(key, value)
	if old, ok := s.records[key]; ok {
		size -= entrySize(key, old)
	}
	if s.quota > 0 && size > s.quota {
		return fmt.Errorf("%w: writing %q needs %d bytes, quota is %d",
			studioerrors.ErrQuotaExceeded, key, size, s.quota)
	}

	s.records[key] = value
	s.size = size
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.records[key]
	return value, ok, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.records[key]; ok {
		s.size -= entrySize(key, old)
		delete(s.records, key)
	}
	return nil
}

// Size returns the bytes currently counted against the quota.
func (s *MemoryStore) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}
