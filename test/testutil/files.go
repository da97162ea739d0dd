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
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// PNGHeader is enough of a PNG for content sniffing to report image/png.
var PNGHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

// WriteImage writes a small PNG-typed file named name into dir. The extra
// bytes make distinct images distinguishable.
func WriteImage(t *testing.T, dir, name string, extra ...byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	data := append(append([]byte(nil), PNGHeader...), extra...)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("Failed to write image: %v", err)
	}
	return path
}

// WriteConfig writes cfg as a YAML config file and returns its path.
func WriteConfig(t *testing.T, dir string, cfg map[string]interface{}) string {
	t.Helper()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}

	path := filepath.Join(dir, "studio.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

// AssertFileExists checks that a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Expected file to exist: %s", path)
	}
}

// AssertNoTempFiles checks that dir holds no leftover .tmp files from
// interrupted atomic writes.
func AssertNoTempFiles(t *testing.T, dir string) {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp*"))
	if err != nil {
		t.Fatalf("Failed to glob temp files: %v", err)
	}
	if len(matches) > 0 {
		t.Errorf("Found leftover temp files: %v", matches)
	}
}
