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

package persist

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sirseerhq/sirseer-studio/internal/codec"
	studioerrors "github.com/sirseerhq/sirseer-studio/internal/errors"
	"github.com/sirseerhq/sirseer-studio/internal/history"
)

// Serialize converts view into a sealed record, encoding every binary handle
// through c. It returns ErrNothingToPersist when the current snapshot holds no
// handle, and aborts on the first encode failure.
func Serialize[T any](ctx context.Context, view history.View[T], c codec.Codec, b Binder[T]) (*Record[T], error) {
	if len(view.Snapshots) == 0 {
		return nil, fmt.Errorf("%w: empty history", studioerrors.ErrInvalidHistory)
	}
	if len(b.Handles(view.Current())) == 0 {
		return nil, studioerrors.ErrNothingToPersist
	}

	// Snapshots share handles until the image changes, so each handle is
	// encoded once.
	encoded := make(map[*codec.File]string)

	rec := &Record[T]{
		SavedAt:   time.Now().UTC(),
		Cursor:    view.Cursor,
		Snapshots: make([]Entry[T], len(view.Snapshots)),
	}
	for i, s := range view.Snapshots {
		entry := Entry[T]{State: b.Attach(s, nil)}
		for field, f := range b.Handles(s) {
			if f == nil {
				continue
			}
			payload, ok := encoded[f]
			if !ok {
				var err error
				payload, err = c.Encode(ctx, f)
				if err != nil {
					return nil, fmt.Errorf("snapshot %d field %s: %w", i, field, err)
				}
				encoded[f] = payload
			}
			if entry.Binaries == nil {
				entry.Binaries = make(map[string]Placeholder)
			}
			entry.Binaries[field] = Placeholder{Payload: payload, Name: f.Name}
		}
		rec.Snapshots[i] = entry
	}

	if err := rec.Seal(); err != nil {
		return nil, fmt.Errorf("failed to calculate checksum: %w", err)
	}
	return rec, nil
}

// Verify checks the record's version and checksum.
func Verify[T any](rec *Record[T]) error {
	if rec.Version != CurrentVersion {
		return fmt.Errorf("%w: record version (%d) is incompatible with current version (%d)",
			studioerrors.ErrCorruptRecord, rec.Version, CurrentVersion)
	}

	calculated, err := calculateChecksum(rec)
	if err != nil {
		return fmt.Errorf("failed to calculate checksum for validation: %w", err)
	}
	if calculated != rec.Checksum {
		return fmt.Errorf("%w: checksum mismatch", studioerrors.ErrCorruptRecord)
	}

	if len(rec.Snapshots) == 0 || rec.Cursor < 0 || rec.Cursor >= len(rec.Snapshots) {
		return fmt.Errorf("%w: cursor %d outside [0, %d)",
			studioerrors.ErrCorruptRecord, rec.Cursor, len(rec.Snapshots))
	}
	return nil
}

// Deserialize verifies rec and rebuilds the snapshots it holds, decoding
// placeholders concurrently. The first decode failure cancels the rest and
// no partial result is returned.
func Deserialize[T any](ctx context.Context, rec *Record[T], c codec.Codec, b Binder[T]) ([]T, int, error) {
	if err := Verify(rec); err != nil {
		return nil, 0, err
	}

	// Identical placeholders decode to one shared handle.
	type job struct {
		placeholder Placeholder
		file        *codec.File
	}
	jobs := make(map[Placeholder]*job)
	for _, entry := range rec.Snapshots {
		for _, p := range entry.Binaries {
			if _, ok := jobs[p]; !ok {
				jobs[p] = &job{placeholder: p}
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		g.Go(func() error {
			f, err := c.Decode(gctx, j.placeholder.Payload, j.placeholder.Name)
			if err != nil {
				return fmt.Errorf("decode %s: %w", j.placeholder.Name, err)
			}
			j.file = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	out := make([]T, len(rec.Snapshots))
	for i, entry := range rec.Snapshots {
		if len(entry.Binaries) == 0 {
			out[i] = b.Attach(entry.State, nil)
			continue
		}
		handles := make(map[string]*codec.File, len(entry.Binaries))
		for field, p := range entry.Binaries {
			handles[field] = jobs[p].file
		}
		out[i] = b.Attach(entry.State, handles)
	}
	return out, rec.Cursor, nil
}
