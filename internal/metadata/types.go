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

// Package metadata types define the structures used for tracking and
// persisting information about save operations. A metadata record sits
// next to every saved project and answers "when was this written, by
// what, and how big was it" without decoding the project itself.
package metadata

import (
	"context"
	"time"
)

// Trigger names what started a save.
type Trigger string

// Save triggers.
const (
	TriggerManual   Trigger = "manual"
	TriggerDebounce Trigger = "debounce"
	TriggerInterval Trigger = "interval"
	TriggerFlush    Trigger = "flush"
)

type triggerKey struct{}

// WithTrigger returns a context carrying t.
func WithTrigger(ctx context.Context, t Trigger) context.Context {
	return context.WithValue(ctx, triggerKey{}, t)
}

// TriggerFrom returns the trigger carried by ctx, TriggerManual if none.
func TriggerFrom(ctx context.Context) Trigger {
	if t, ok := ctx.Value(triggerKey{}).(Trigger); ok {
		return t
	}
	return TriggerManual
}

// SaveMetadata represents the complete metadata record for a single save
// operation.
type SaveMetadata struct {
	StudioVersion string      `json:"studio_version"`
	FormatVersion int         `json:"format_version"`
	SaveID        string      `json:"save_id"`
	Trigger       Trigger     `json:"trigger"`
	Key           string      `json:"key"`
	Results       SaveResults `json:"results"`
	PreviousSave  *SaveRef    `json:"previous_save,omitempty"`
}

// SaveResults contains statistics about a completed save.
type SaveResults struct {
	Snapshots   int       `json:"snapshots"`
	Cursor      int       `json:"cursor"`
	Binaries    int       `json:"binaries"`
	BinaryBytes int64     `json:"binary_bytes"`
	RecordBytes int       `json:"record_bytes"`
	Duration    string    `json:"save_duration"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// SaveRef links a save to the one it replaced.
type SaveRef struct {
	SaveID      string    `json:"save_id"`
	CompletedAt time.Time `json:"completed_at"`
}
