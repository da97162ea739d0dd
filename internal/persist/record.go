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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/sirseerhq/sirseer-studio/internal/codec"
)

// CurrentVersion is the record format version. Bump it when the record
// structure changes incompatibly.
const CurrentVersion = 1

// Binder maps an application state value to the binary handles it holds.
// Handles are keyed by field name.
type Binder[T any] interface {
	// Handles returns the handles held by s. Fields without a handle are
	// absent from the map.
	Handles(s T) map[string]*codec.File

	// Attach returns a copy of s carrying handles. A nil map clears every
	// handle field.
	Attach(s T, handles map[string]*codec.File) T
}

// Placeholder stands in for a binary handle inside a persisted record.
type Placeholder struct {
	Payload string `json:"payload"`
	Name    string `json:"name"`
}

// Entry is one persisted snapshot: the state with its handles cleared plus a
// placeholder per handle field.
type Entry[T any] struct {
	State    T                      `json:"state"`
	Binaries map[string]Placeholder `json:"binaries,omitempty"`
}

// Record is the durable form of a history.
type Record[T any] struct {
	Version   int        `json:"version"`
	Checksum  string     `json:"checksum"`
	SavedAt   time.Time  `json:"saved_at"`
	Cursor    int        `json:"cursor"`
	Snapshots []Entry[T] `json:"snapshots"`
}

// Seal stamps the record with the current version and its checksum.
func (r *Record[T]) Seal() error {
	r.Version = CurrentVersion
	checksum, err := calculateChecksum(r)
	if err != nil {
		return err
	}
	r.Checksum = checksum
	return nil
}

// calculateChecksum computes the SHA256 hash of the record content.
// The checksum field itself is excluded from the calculation.
func calculateChecksum[T any](r *Record[T]) (string, error) {
	recordCopy := *r
	recordCopy.Checksum = ""

	data, err := json.Marshal(recordCopy)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
