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

// Package metadata provides functionality for tracking and persisting metadata
// about save operations. It records statistics about each save including the
// number of snapshots written, how many binary payloads were encoded, the
// record size, and a link to the save it replaced.
//
// Metadata is stored in the same durable store as the project, under the
// project key with a ".meta" suffix.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/sirseerhq/sirseer-studio/internal/kvstore"
)

// KeySuffix is appended to a project key to form its metadata key.
const KeySuffix = ".meta"

// Key returns the metadata key for a project key.
func Key(projectKey string) string {
	return projectKey + KeySuffix
}

// Tracker collects statistics during a save operation and generates metadata.
// Create a new tracker at the start of each save.
type Tracker struct {
	startTime   time.Time
	trigger     Trigger
	snapshots   int
	cursor      int
	binaries    int
	binaryBytes int64
	recordBytes int
}

// New creates a new metadata tracker and initializes it with the current time.
func New(trigger Trigger) *Tracker {
	return &Tracker{
		startTime: time.Now(),
		trigger:   trigger,
	}
}

// RecordHistory records the shape of the history being saved.
func (t *Tracker) RecordHistory(snapshots, cursor int) {
	t.snapshots = snapshots
	t.cursor = cursor
}

// AddBinary records one encoded binary payload of size bytes.
func (t *Tracker) AddBinary(size int) {
	t.binaries++
	t.binaryBytes += int64(size)
}

// SetRecordBytes records the size of the serialized record.
func (t *Tracker) SetRecordBytes(n int) {
	t.recordBytes = n
}

// GenerateMetadata creates a SaveMetadata instance capturing the complete
// save statistics. Call this once the record has been written.
func (t *Tracker) GenerateMetadata(studioVersion string, formatVersion int, key string, previous *SaveRef) *SaveMetadata {
	completedAt := time.Now()
	duration := completedAt.Sub(t.startTime)

	return &SaveMetadata{
		StudioVersion: studioVersion,
		FormatVersion: formatVersion,
		SaveID:        uuid.NewString(),
		Trigger:       t.trigger,
		Key:           key,
		Results: SaveResults{
			Snapshots:   t.snapshots,
			Cursor:      t.cursor,
			Binaries:    t.binaries,
			BinaryBytes: t.binaryBytes,
			RecordBytes: t.recordBytes,
			Duration:    duration.String(),
			StartedAt:   t.startTime,
			CompletedAt: completedAt,
		},
		PreviousSave: previous,
	}
}

// Ref returns a lightweight reference to md.
func (md *SaveMetadata) Ref() *SaveRef {
	if md == nil {
		return nil
	}
	return &SaveRef{SaveID: md.SaveID, CompletedAt: md.Results.CompletedAt}
}

// Write persists md under the metadata key of projectKey.
func Write(ctx context.Context, store kvstore.Store, projectKey string, md *SaveMetadata) error {
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := store.Put(ctx, Key(projectKey), string(data)); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}
	return nil
}

// Read loads the metadata stored for projectKey. It returns nil without an
// error when none exists.
func Read(ctx context.Context, store kvstore.Store, projectKey string) (*SaveMetadata, error) {
	raw, ok, err := store.Get(ctx, Key(projectKey))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var md SaveMetadata
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &md, nil
}

// WriteMetadataToWriter serializes metadata to JSON and writes it to the
// provided io.Writer. The output is formatted with indentation for readability.
func WriteMetadataToWriter(md *SaveMetadata, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(md)
}
