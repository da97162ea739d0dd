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

package testutil

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

// AssertNDJSONSnapshots validates that NDJSON output holds the expected
// number of snapshot records with exactly one marked current, and returns
// the decoded records.
func AssertNDJSONSnapshots(t *testing.T, ndjson string, expectedCount int) []map[string]interface{} {
	t.Helper()

	scanner := bufio.NewScanner(strings.NewReader(ndjson))
	var records []map[string]interface{}
	current := 0

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var rec map[string]interface{}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Errorf("Line %d: invalid JSON: %v", len(records)+1, err)
			continue
		}

		for _, field := range []string{"index", "current", "source_bytes"} {
			if _, ok := rec[field]; !ok {
				t.Errorf("Line %d: missing required field '%s'", len(records)+1, field)
			}
		}
		if rec["current"] == true {
			current++
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		t.Fatalf("Error reading output: %v", err)
	}
	if len(records) != expectedCount {
		t.Errorf("Expected %d snapshots, got %d", expectedCount, len(records))
	}
	if expectedCount > 0 && current != 1 {
		t.Errorf("Expected exactly one current snapshot, got %d", current)
	}
	return records
}

// AssertMetadataJSON validates save metadata printed by 'studio info'.
func AssertMetadataJSON(t *testing.T, data string) map[string]interface{} {
	t.Helper()

	var md map[string]interface{}
	if err := json.Unmarshal([]byte(data), &md); err != nil {
		t.Fatalf("Invalid metadata JSON: %v\n%s", err, data)
	}

	for _, field := range []string{"studio_version", "format_version", "save_id", "trigger", "key", "results"} {
		if _, ok := md[field]; !ok {
			t.Errorf("Missing required metadata field: %s", field)
		}
	}
	return md
}

// AssertContainsString checks if a string contains a substring
func AssertContainsString(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Errorf("Expected string to contain %q, got: %s", needle, haystack)
	}
}

// AssertNotContainsString checks if a string does not contain a substring
func AssertNotContainsString(t *testing.T, haystack, needle string) {
	t.Helper()
	if strings.Contains(haystack, needle) {
		t.Errorf("Expected string to NOT contain %q, got: %s", needle, haystack)
	}
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertEqual compares two values and fails if they're not equal
func AssertEqual(t *testing.T, got, want interface{}) {
	t.Helper()
	if got != want {
		t.Errorf("Got %v, want %v", got, want)
	}
}

// AssertFilePermissions checks file has expected permissions
func AssertFilePermissions(t *testing.T, path string, expectedMode os.FileMode) {
	t.Helper()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}

	if mode := info.Mode().Perm(); mode != expectedMode {
		t.Errorf("Expected file mode %v, got %v", expectedMode, mode)
	}
}
