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
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirseerhq/sirseer-studio/internal/codec"
	"github.com/sirseerhq/sirseer-studio/internal/editor"
	"github.com/sirseerhq/sirseer-studio/internal/history"
)

// Compile-time check that Writer implements RecordWriter
var _ RecordWriter = (*Writer)(nil)

func lines(t *testing.T, s string) []SnapshotRecord {
	t.Helper()
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var out []SnapshotRecord
	for i, line := range strings.Split(s, "\n") {
		var rec SnapshotRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("Invalid JSON at line %d: %v", i, err)
		}
		out = append(out, rec)
	}
	return out
}

func TestWriter_BuffersUntilFlush(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf)

	if err := writer.Write(SnapshotRecord{Index: 0}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Error("output written before Flush")
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if got := buf.String(); got != `{"index":0,"current":false,"source_bytes":0}`+"\n" {
		t.Errorf("output = %q", got)
	}
	if writer.Count() != 1 {
		t.Errorf("Count() = %d, want 1", writer.Count())
	}
}

func TestWriter_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf)

	numGoroutines := 10
	recordsPerGoroutine := 100
	totalRecords := numGoroutines * recordsPerGoroutine

	errCh := make(chan error, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(goroutineID int) {
			for j := 0; j < recordsPerGoroutine; j++ {
				if err := writer.Write(SnapshotRecord{Index: goroutineID*recordsPerGoroutine + j}); err != nil {
					errCh <- err
					return
				}
			}
			errCh <- nil
		}(i)
	}
	for i := 0; i < numGoroutines; i++ {
		if err := <-errCh; err != nil {
			t.Fatalf("Concurrent write failed: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if writer.Count() != totalRecords {
		t.Errorf("Count mismatch: got %d, want %d", writer.Count(), totalRecords)
	}
	if got := len(lines(t, buf.String())); got != totalRecords {
		t.Errorf("Line count mismatch: got %d, want %d", got, totalRecords)
	}
}

func TestWriter_WriteError(t *testing.T) {
	writer := NewWriter(&bytes.Buffer{})
	if err := writer.Write(make(chan int)); err == nil {
		t.Error("Expected error when writing non-marshalable data")
	}
	if writer.Count() != 0 {
		t.Errorf("Count() = %d after failed write, want 0", writer.Count())
	}
}

func TestNewFileWriter(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "nested", "history.ndjson")

	writer, err := NewFileWriter(filename)
	if err != nil {
		t.Fatalf("NewFileWriter failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := writer.Write(SnapshotRecord{Index: i}); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	recs := lines(t, string(data))
	if len(recs) != 3 || recs[2].Index != 2 {
		t.Errorf("records = %+v", recs)
	}

	info, err := os.Stat(filename)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestNewFileWriter_Error(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := NewFileWriter(filepath.Join(blocker, "history.ndjson")); err == nil {
		t.Error("Expected error when the parent is a file, got nil")
	}
}

func TestExportHistory(t *testing.T) {
	img := codec.NewFile("cat.png", "image/png", []byte("abc"))
	hist := history.New(editor.ImageState{})
	hist.Commit(editor.ImageState{}.WithSource(img))
	hist.Commit(editor.ImageState{Filter: "sepia", Brush: 4}.WithSource(img))
	hist.Undo()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	n, err := ExportHistory(w, hist.View())
	if err != nil {
		t.Fatalf("ExportHistory failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if n != 3 {
		t.Errorf("ExportHistory() = %d, want 3", n)
	}

	recs := lines(t, buf.String())
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}

	tests := []struct {
		index   int
		current bool
		source  string
		bytes   int
		filter  string
	}{
		{0, false, "", 0, ""},
		{1, true, "cat.png", 3, ""},
		{2, false, "cat.png", 3, "sepia"},
	}
	for _, tt := range tests {
		got := recs[tt.index]
		if got.Index != tt.index || got.Current != tt.current || got.SourceName != tt.source ||
			got.SourceBytes != tt.bytes || got.Filter != tt.filter {
			t.Errorf("record %d = %+v", tt.index, got)
		}
	}
	if recs[1].SourceSum != img.Sum() || recs[1].SourceType != "image/png" {
		t.Errorf("record 1 source = %s/%s", recs[1].SourceType, recs[1].SourceSum)
	}
	if strings.Contains(buf.String(), "YWJj") {
		t.Error("binary payload leaked into the export")
	}
}

type failingWriter struct{ after int }

func (f *failingWriter) Write(any) error {
	if f.after == 0 {
		return errors.New("sink closed")
	}
	f.after--
	return nil
}

func (f *failingWriter) Close() error { return nil }

func TestExportHistory_WriteError(t *testing.T) {
	hist := history.New(editor.ImageState{Filter: "a"})
	hist.Commit(editor.ImageState{Filter: "b"})
	hist.Commit(editor.ImageState{Filter: "c"})

	n, err := ExportHistory(&failingWriter{after: 1}, hist.View())
	if err == nil || !strings.Contains(err.Error(), "snapshot 1") {
		t.Errorf("ExportHistory() error = %v, want failure at snapshot 1", err)
	}
	if n != 1 {
		t.Errorf("ExportHistory() = %d, want 1", n)
	}
}
