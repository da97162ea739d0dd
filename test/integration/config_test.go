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

package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirseerhq/sirseer-studio/test/testutil"
)

// startProject creates a project under env and returns the image path.
func startProject(t *testing.T, dir string, env map[string]string, extra ...string) string {
	t.Helper()
	img := testutil.WriteImage(t, dir, "cat.png")
	args := append([]string{"new", "--image", img}, extra...)
	testutil.AssertCLISuccess(t, testutil.RunCLI(t, args, env))
	return img
}

func TestConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	env := testutil.StudioEnv(dir)
	delete(env, "STUDIO_STORE_PATH")

	fileStore := filepath.Join(dir, "from-file")
	envStore := filepath.Join(dir, "from-env")
	flagStore := filepath.Join(dir, "from-flag")
	cfgPath := testutil.WriteConfig(t, dir, map[string]any{
		"storage": map[string]any{
			"backend": "file",
			"path":    fileStore,
			"key":     "from-file",
		},
	})
	img := testutil.WriteImage(t, dir, "cat.png")

	t.Run("file", func(t *testing.T) {
		result := testutil.RunCLI(t, []string{"--config", cfgPath, "new", "--image", img}, env)
		testutil.AssertCLISuccess(t, result)
		assertStoreHasKey(t, fileStore, "from-file")
	})

	t.Run("env overrides file", func(t *testing.T) {
		envWith := copyEnv(env)
		envWith["STUDIO_STORE_PATH"] = envStore
		envWith["STUDIO_KEY"] = "from-env"
		result := testutil.RunCLI(t, []string{"--config", cfgPath, "new", "--image", img}, envWith)
		testutil.AssertCLISuccess(t, result)
		assertStoreHasKey(t, envStore, "from-env")
	})

	t.Run("flag overrides env", func(t *testing.T) {
		envWith := copyEnv(env)
		envWith["STUDIO_STORE_PATH"] = envStore
		envWith["STUDIO_KEY"] = "from-env"
		result := testutil.RunCLI(t, []string{
			"--config", cfgPath, "--path", flagStore, "--key", "from-flag",
			"new", "--image", img,
		}, envWith)
		testutil.AssertCLISuccess(t, result)
		assertStoreHasKey(t, flagStore, "from-flag")
	})
}

func TestConfig_ProjectOverrides(t *testing.T) {
	dir := t.TempDir()
	env := testutil.StudioEnv(dir)
	cfgPath := testutil.WriteConfig(t, dir, map[string]any{
		"history": map[string]any{"limit": 10},
		"projects": map[string]any{
			"cats": map[string]any{
				"key":           "studio:cats",
				"history_limit": 2,
			},
		},
	})
	store := filepath.Join(dir, "store")

	startProject(t, dir, env, "--config", cfgPath, "--project", "cats")
	assertStoreHasKey(t, store, "studio:cats")

	for _, filter := range []string{"a", "b", "c"} {
		result := testutil.RunCLI(t, []string{"--config", cfgPath, "--project", "cats", "apply", "--filter", filter}, env)
		testutil.AssertCLISuccess(t, result)
	}
	export := testutil.RunCLI(t, []string{"--config", cfgPath, "--project", "cats", "export"}, env)
	testutil.AssertCLISuccess(t, export)
	testutil.AssertNDJSONSnapshots(t, export.Stdout, 2)

	// A project without an entry gets its own key under the base key.
	startProject(t, dir, env, "--config", cfgPath, "--project", "dogs")
	assertStoreHasKey(t, store, "studio:project:dogs")
}

func TestConfig_HistoryLimitFromEnv(t *testing.T) {
	dir := t.TempDir()
	env := testutil.StudioEnv(dir)
	env["STUDIO_HISTORY_LIMIT"] = "3"
	startProject(t, dir, env)

	for _, brush := range []string{"1", "2", "3", "4"} {
		testutil.AssertCLISuccess(t, testutil.RunCLI(t, []string{"apply", "--brush", brush}, env))
	}

	export := testutil.RunCLI(t, []string{"export"}, env)
	testutil.AssertCLISuccess(t, export)
	records := testutil.AssertNDJSONSnapshots(t, export.Stdout, 3)
	if len(records) == 3 {
		// Oldest entries are evicted; the cursor stays on the newest.
		testutil.AssertEqual(t, records[0]["brush"], float64(2))
		testutil.AssertEqual(t, records[2]["current"], true)
	}
}

func TestConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]any
		wantErr string
	}{
		{
			name:    "negative quota",
			config:  map[string]any{"storage": map[string]any{"quota_bytes": -1}},
			wantErr: "storage quota must not be negative",
		},
		{
			name:    "unknown log format",
			config:  map[string]any{"log": map[string]any{"format": "xml"}},
			wantErr: "unknown log format",
		},
		{
			name:    "zero history limit",
			config:  map[string]any{"history": map[string]any{"limit": 0}},
			wantErr: "history limit must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfgPath := testutil.WriteConfig(t, dir, tt.config)
			result := testutil.RunCLI(t, []string{"--config", cfgPath, "show"}, testutil.StudioEnv(dir))
			testutil.AssertCLIError(t, result, tt.wantErr)
			testutil.AssertExitCode(t, result, 1)
		})
	}
}

// assertStoreHasKey checks that a file store directory holds a record for key.
func assertStoreHasKey(t *testing.T, dir, key string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, storeFilePrefix(key)+"-*.kv"))
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	if len(matches) != 1 {
		entries, _ := os.ReadDir(dir)
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected one record for key %q in %s, found %v", key, dir, names)
	}
}

// storeFilePrefix mirrors the file store's key sanitizing.
func storeFilePrefix(key string) string {
	out := []rune(key)
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}

func copyEnv(env map[string]string) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}
