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

package output

import (
	"fmt"

	"github.com/sirseerhq/sirseer-studio/internal/editor"
	"github.com/sirseerhq/sirseer-studio/internal/history"
)

// SnapshotRecord is the exported form of one history entry.
type SnapshotRecord struct {
	Index       int    `json:"index"`
	Current     bool   `json:"current"`
	Filter      string `json:"filter,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
	Brush       int    `json:"brush,omitempty"`
	Notes       string `json:"notes,omitempty"`
	SourceName  string `json:"source_name,omitempty"`
	SourceType  string `json:"source_type,omitempty"`
	SourceBytes int    `json:"source_bytes"`
	SourceSum   string `json:"source_sha256,omitempty"`
}

// NewSnapshotRecord describes s at position index.
func NewSnapshotRecord(index int, current bool, s editor.ImageState) SnapshotRecord {
	rec := SnapshotRecord{
		Index:   index,
		Current: current,
		Filter:  s.Filter,
		Prompt:  s.Prompt,
		Brush:   s.Brush,
		Notes:   s.Notes,
	}
	if s.Source != nil {
		rec.SourceName = s.Source.Name
		rec.SourceType = s.Source.ContentType
		rec.SourceBytes = s.Source.Size()
		rec.SourceSum = s.Source.Sum()
	}
	return rec
}

// ExportHistory writes one record per snapshot of view, oldest first, and
// returns how many were written.
func ExportHistory(w RecordWriter, view history.View[editor.ImageState]) (int, error) {
	for i, s := range view.Snapshots {
		if err := w.Write(NewSnapshotRecord(i, i == view.Cursor, s)); err != nil {
			return i, fmt.Errorf("snapshot %d: %w", i, err)
		}
	}
	return len(view.Snapshots), nil
}
