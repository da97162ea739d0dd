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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sirseerhq/sirseer-studio/internal/autosave"
	"github.com/sirseerhq/sirseer-studio/internal/codec"
	studioerrors "github.com/sirseerhq/sirseer-studio/internal/errors"
	"github.com/sirseerhq/sirseer-studio/internal/history"
	"github.com/sirseerhq/sirseer-studio/internal/kvstore"
	"github.com/sirseerhq/sirseer-studio/internal/metadata"
	"github.com/sirseerhq/sirseer-studio/internal/storeerror"
	"github.com/sirseerhq/sirseer-studio/pkg/version"
)

// Protocol saves and loads a history under one key of a durable store.
// Writes through a Protocol are serialized.
type Protocol[T any] struct {
	Store  kvstore.Store
	Key    string
	Codec  codec.Codec
	Binder Binder[T]
	Logger *slog.Logger

	mu sync.Mutex
}

// Save serializes view and writes it under p.Key, followed by a metadata
// record. Every failure is returned: ErrNothingToPersist when the current
// snapshot holds no binary payload (the stored record is left alone),
// ErrCodec when a handle fails to encode and ErrQuotaExceeded when the store
// rejects the record's size.
func (p *Protocol[T]) Save(ctx context.Context, view history.View[T]) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker := metadata.New(metadata.TriggerFrom(ctx))
	tracker.RecordHistory(len(view.Snapshots), view.Cursor)

	rec, err := Serialize(ctx, view, p.Codec, p.Binder)
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, entry := range rec.Snapshots {
		for _, ph := range entry.Binaries {
			if !seen[ph.Payload] {
				seen[ph.Payload] = true
				tracker.AddBinary(len(ph.Payload))
			}
		}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	tracker.SetRecordBytes(len(data))

	if err := p.Store.Put(ctx, p.Key, string(data)); err != nil {
		return classifyWriteError(err, len(data))
	}

	previous, err := metadata.Read(ctx, p.Store, p.Key)
	if err != nil {
		p.logger().Warn("ignoring unreadable save metadata", "key", p.Key, "error", err)
		previous = nil
	}
	md := tracker.GenerateMetadata(version.Version, CurrentVersion, p.Key, previous.Ref())
	if err := metadata.Write(ctx, p.Store, p.Key, md); err != nil {
		// The record itself is durable; a missing audit entry is not a failed save.
		p.logger().Warn("failed to write save metadata", "key", p.Key, "error", err)
	}

	p.logger().Debug("project saved",
		"key", p.Key,
		"trigger", md.Trigger,
		"snapshots", len(rec.Snapshots),
		"cursor", rec.Cursor,
		"bytes", len(data))
	return nil
}

// Read fetches, unmarshals and verifies the stored record without decoding
// its binaries. It returns ErrNoSavedProject when the key is absent.
func (p *Protocol[T]) Read(ctx context.Context) (*Record[T], error) {
	raw, ok, err := p.Store.Get(ctx, p.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to read project %s: %w", p.Key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w under key %s", studioerrors.ErrNoSavedProject, p.Key)
	}

	var rec Record[T]
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("%w (invalid JSON): %w", studioerrors.ErrCorruptRecord, err)
	}
	if err := Verify(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Load reads the stored record, decodes its binaries and installs it into
// hist atomically. On any failure hist is left unchanged.
func (p *Protocol[T]) Load(ctx context.Context, hist *history.Store[T]) error {
	rec, err := p.Read(ctx)
	if err != nil {
		return err
	}
	seq, cursor, err := Deserialize(ctx, rec, p.Codec, p.Binder)
	if err != nil {
		return err
	}
	if err := hist.LoadHistory(seq, cursor); err != nil {
		return err
	}
	p.logger().Debug("project loaded", "key", p.Key, "snapshots", len(seq), "cursor", cursor)
	return nil
}

// Clear removes the stored record and its metadata.
func (p *Protocol[T]) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.Store.Delete(ctx, p.Key); err != nil {
		return fmt.Errorf("failed to delete project %s: %w", p.Key, err)
	}
	if err := p.Store.Delete(ctx, metadata.Key(p.Key)); err != nil {
		return fmt.Errorf("failed to delete save metadata: %w", err)
	}
	return nil
}

// LastMetadata returns the metadata of the most recent save, or nil when
// nothing has been saved.
func (p *Protocol[T]) LastMetadata(ctx context.Context) (*metadata.SaveMetadata, error) {
	return metadata.Read(ctx, p.Store, p.Key)
}

// AutoSaver returns the save function for an autosave pipeline. An empty
// project is treated as saved without writing; every other failure is
// wrapped in ErrSaveFailed.
func (p *Protocol[T]) AutoSaver() autosave.SaveFunc[T] {
	return func(ctx context.Context, view history.View[T]) error {
		err := p.Save(ctx, view)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, studioerrors.ErrNothingToPersist):
			p.logger().Debug("autosave skipped, project is empty", "key", p.Key)
			return nil
		default:
			return fmt.Errorf("%w: %w", studioerrors.ErrSaveFailed, err)
		}
	}
}

func (p *Protocol[T]) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

var inspector = storeerror.NewInspector()

// classifyWriteError tags size rejections from any backend as quota errors.
func classifyWriteError(err error, size int) error {
	if errors.Is(err, studioerrors.ErrQuotaExceeded) {
		return fmt.Errorf("failed to write %d byte record: %w", size, err)
	}
	if inspector.IsQuotaError(err) {
		return fmt.Errorf("%w: failed to write %d byte record: %w", studioerrors.ErrQuotaExceeded, size, err)
	}
	return fmt.Errorf("failed to write record: %w", err)
}
