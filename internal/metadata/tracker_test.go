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

package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sirseerhq/sirseer-studio/internal/kvstore"
)

func TestTracker_GenerateMetadata(t *testing.T) {
	tracker := New(TriggerDebounce)
	tracker.RecordHistory(4, 2)
	tracker.AddBinary(100)
	tracker.AddBinary(50)
	tracker.SetRecordBytes(512)

	time.Sleep(time.Millisecond)
	previous := &SaveRef{SaveID: "earlier", CompletedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	md := tracker.GenerateMetadata("v1.0.0", 1, "studio:project", previous)

	if md.StudioVersion != "v1.0.0" || md.FormatVersion != 1 {
		t.Errorf("versions = %s/%d", md.StudioVersion, md.FormatVersion)
	}
	if _, err := uuid.Parse(md.SaveID); err != nil {
		t.Errorf("SaveID %q is not a UUID: %v", md.SaveID, err)
	}
	if md.Trigger != TriggerDebounce {
		t.Errorf("Trigger = %s, want debounce", md.Trigger)
	}
	if md.Key != "studio:project" {
		t.Errorf("Key = %s", md.Key)
	}

	r := md.Results
	if r.Snapshots != 4 || r.Cursor != 2 {
		t.Errorf("Snapshots/Cursor = %d/%d, want 4/2", r.Snapshots, r.Cursor)
	}
	if r.Binaries != 2 || r.BinaryBytes != 150 {
		t.Errorf("Binaries/BinaryBytes = %d/%d, want 2/150", r.Binaries, r.BinaryBytes)
	}
	if r.RecordBytes != 512 {
		t.Errorf("RecordBytes = %d, want 512", r.RecordBytes)
	}
	if !r.CompletedAt.After(r.StartedAt) {
		t.Error("CompletedAt should be after StartedAt")
	}
	if r.Duration == "" {
		t.Error("Duration is empty")
	}
	if md.PreviousSave == nil || md.PreviousSave.SaveID != "earlier" {
		t.Errorf("PreviousSave = %+v", md.PreviousSave)
	}

	other := New(TriggerManual).GenerateMetadata("v1.0.0", 1, "studio:project", nil)
	if other.SaveID == md.SaveID {
		t.Error("two saves share a SaveID")
	}
}

func TestTriggerContext(t *testing.T) {
	ctx := context.Background()
	if got := TriggerFrom(ctx); got != TriggerManual {
		t.Errorf("TriggerFrom(empty) = %s, want manual", got)
	}
	ctx = WithTrigger(ctx, TriggerInterval)
	if got := TriggerFrom(ctx); got != TriggerInterval {
		t.Errorf("TriggerFrom() = %s, want interval", got)
	}
}

func TestWriteAndRead(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore(0)

	md, err := Read(ctx, store, "studio:project")
	if err != nil || md != nil {
		t.Fatalf("Read on empty store = %v, %v; want nil, nil", md, err)
	}

	written := New(TriggerFlush).GenerateMetadata("dev", 1, "studio:project", nil)
	if err := Write(ctx, store, "studio:project", written); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if _, ok, _ := store.Get(ctx, "studio:project.meta"); !ok {
		t.Fatal("metadata not stored under the .meta key")
	}

	got, err := Read(ctx, store, "studio:project")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.SaveID != written.SaveID || got.Trigger != TriggerFlush {
		t.Errorf("Read() = %+v, want %+v", got, written)
	}
	if ref := got.Ref(); ref.SaveID != written.SaveID {
		t.Errorf("Ref().SaveID = %s", ref.SaveID)
	}

	var nilMD *SaveMetadata
	if nilMD.Ref() != nil {
		t.Error("nil metadata should have a nil ref")
	}
}

func TestReadCorrupt(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore(0)
	if err := store.Put(ctx, Key("k"), "{not json"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := Read(ctx, store, "k"); err == nil || !strings.Contains(err.Error(), "failed to parse metadata") {
		t.Errorf("Read() error = %v, want parse error", err)
	}
}

func TestWriteMetadataToWriter(t *testing.T) {
	md := New(TriggerManual).GenerateMetadata("dev", 1, "studio:project", nil)

	var buf bytes.Buffer
	if err := WriteMetadataToWriter(md, &buf); err != nil {
		t.Fatalf("WriteMetadataToWriter failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	for _, field := range []string{"studio_version", "save_id", "trigger", "key", "results"} {
		if _, ok := decoded[field]; !ok {
			t.Errorf("missing field %q", field)
		}
	}
	if decoded["previous_save"] != nil {
		t.Error("previous_save should be omitted when nil")
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("output is not indented")
	}
}
