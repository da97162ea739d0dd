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

package history

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"

	studioerrors "github.com/sirseerhq/sirseer-studio/internal/errors"
)

// DefaultLimit is the history length used when no limit is configured.
const DefaultLimit = 50

// Option configures a Store.
type Option[T any] func(*Store[T])

// WithLimit bounds the number of snapshots kept. Values below 1 are clamped to 1.
func WithLimit[T any](limit int) Option[T] {
	return func(s *Store[T]) {
		if limit < 1 {
			limit = 1
		}
		s.limit = limit
	}
}

// WithEqual replaces the default JSON-digest equality. The predicate must
// ignore fields that are not serialized.
func WithEqual[T any](equal func(a, b T) bool) Option[T] {
	return func(s *Store[T]) {
		s.equal = equal
	}
}

// View is a consistent copy of the store taken under a single lock.
type View[T any] struct {
	Snapshots []T
	Cursor    int
	Revision  uint64
}

// Current returns the snapshot the cursor designates.
func (v View[T]) Current() T {
	return v.Snapshots[v.Cursor]
}

// Store is a bounded undo/redo history. It is safe for concurrent use.
type Store[T any] struct {
	mu       sync.RWMutex
	limit    int
	equal    func(a, b T) bool
	entries  []T
	cursor   int
	revision uint64

	// digest of entries[cursor]; nil when stale.
	digest []byte

	subs    map[int]chan uint64
	nextSub int
}

// New creates a store seeded with a single snapshot.
func New[T any](seed T, opts ...Option[T]) *Store[T] {
	s := &Store[T]{
		limit:   DefaultLimit,
		entries: []T{seed},
		subs:    make(map[int]chan uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Commit records next as the new current snapshot. It is a no-op when next
// equals the current snapshot.
func (s *Store[T]) Commit(next T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nextDigest, same := s.sameAsCurrent(next)
	if same {
		return
	}

	s.entries = append(s.entries[:s.cursor+1:s.cursor+1], next)
	s.cursor = len(s.entries) - 1
	s.evict()
	s.digest = nextDigest
	s.changed()
}

// Undo moves the cursor one snapshot back. It reports whether it moved.
func (s *Store[T]) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor == 0 {
		return false
	}
	s.cursor--
	s.digest = nil
	s.changed()
	return true
}

// Redo moves the cursor one snapshot forward. It reports whether it moved.
func (s *Store[T]) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor >= len(s.entries)-1 {
		return false
	}
	s.cursor++
	s.digest = nil
	s.changed()
	return true
}

// Reset replaces the whole history with a single seed snapshot.
func (s *Store[T]) Reset(seed T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = []T{seed}
	s.cursor = 0
	s.digest = nil
	s.changed()
}

// LoadHistory atomically replaces the history with seq and moves the cursor
// to idx. An empty seq or an idx outside [0, len(seq)) is rejected with
// ErrInvalidHistory and the store is left unchanged. Sequences longer than
// the limit lose their oldest entries.
func (s *Store[T]) LoadHistory(seq []T, idx int) error {
	if len(seq) == 0 {
		return fmt.Errorf("%w: empty sequence", studioerrors.ErrInvalidHistory)
	}
	if idx < 0 || idx >= len(seq) {
		return fmt.Errorf("%w: cursor %d outside [0, %d)", studioerrors.ErrInvalidHistory, idx, len(seq))
	}

	entries := make([]T, len(seq))
	copy(entries, seq)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = entries
	s.cursor = idx
	s.evict()
	s.digest = nil
	s.changed()
	return nil
}

// Current returns the snapshot at the cursor.
func (s *Store[T]) Current() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[s.cursor]
}

// CanUndo reports whether Undo would move the cursor.
func (s *Store[T]) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor > 0
}

// CanRedo reports whether Redo would move the cursor.
func (s *Store[T]) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor < len(s.entries)-1
}

// Cursor returns the index of the current snapshot.
func (s *Store[T]) Cursor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

// Len returns the number of snapshots held.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Limit returns the configured bound.
func (s *Store[T]) Limit() int {
	return s.limit
}

// Sequence returns a copy of the snapshots.
func (s *Store[T]) Sequence() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, len(s.entries))
	copy(out, s.entries)
	return out
}

// Revision returns the mutation counter.
func (s *Store[T]) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// View returns a consistent copy of snapshots, cursor and revision.
func (s *Store[T]) View() View[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, len(s.entries))
	copy(out, s.entries)
	return View[T]{Snapshots: out, Cursor: s.cursor, Revision: s.revision}
}

// Subscribe returns a channel receiving the revision after each effective
// mutation, and a function that unsubscribes and closes the channel. The
// channel holds at most one pending value; a slow reader only ever sees the
// latest revision.
func (s *Store[T]) Subscribe() (<-chan uint64, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan uint64, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// evict drops the oldest entries past the limit, keeping the cursor on the
// same snapshot. Callers hold s.mu.
func (s *Store[T]) evict() {
	over := len(s.entries) - s.limit
	if over <= 0 {
		return
	}
	s.entries = append([]T(nil), s.entries[over:]...)
	s.cursor -= over
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// changed bumps the revision and notifies subscribers. Callers hold s.mu.
func (s *Store[T]) changed() {
	s.revision++
	for _, ch := range s.subs {
		select {
		case ch <- s.revision:
		default:
			// Replace the stale pending revision.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s.revision:
			default:
			}
		}
	}
}

// sameAsCurrent compares next with the current snapshot. With the default
// equality it also returns the digest of next so Commit can cache it.
// Callers hold s.mu.
func (s *Store[T]) sameAsCurrent(next T) ([]byte, bool) {
	if s.equal != nil {
		return nil, s.equal(s.entries[s.cursor], next)
	}

	nextDigest, err := Digest(next)
	if err != nil {
		return nil, false
	}
	if s.digest == nil {
		cur, err := Digest(s.entries[s.cursor])
		if err != nil {
			return nextDigest, false
		}
		s.digest = cur
	}
	return nextDigest, bytes.Equal(s.digest, nextDigest)
}

// Digest returns the SHA-256 of the JSON encoding of v. Fields excluded from
// JSON do not contribute.
func Digest(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}
