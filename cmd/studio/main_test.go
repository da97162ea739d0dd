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

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	studioerrors "github.com/sirseerhq/sirseer-studio/internal/errors"
)

func TestMapErrorToExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"general", errors.New("boom"), 1},
		{"save failed", studioerrors.ErrSaveFailed, 1},
		{"invalid history", fmt.Errorf("load: %w", studioerrors.ErrInvalidHistory), 2},
		{"codec", fmt.Errorf("snapshot 0 field source: %w", studioerrors.ErrCodec), 2},
		{"corrupt record", studioerrors.ErrCorruptRecord, 2},
		{"quota", fmt.Errorf("%w: disk full", studioerrors.ErrQuotaExceeded), 3},
		{"quota inside save failure", fmt.Errorf("%w: %w", studioerrors.ErrSaveFailed, studioerrors.ErrQuotaExceeded), 3},
		{"no saved project", fmt.Errorf("%w under key k", studioerrors.ErrNoSavedProject), 4},
	}

	for _, tt := range tests {
		if got := mapErrorToExitCode(tt.err); got != tt.want {
			t.Errorf("mapErrorToExitCode(%s) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

// testEnv isolates config lookup and points the file store at a temp dir.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("STUDIO_STORE", "file")
	t.Setenv("STUDIO_STORE_PATH", filepath.Join(dir, "store"))
	t.Setenv("STUDIO_KEY", "studio:test")
	t.Setenv("STUDIO_LOG_LEVEL", "error")
	t.Chdir(dir)
	return dir
}

func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := append([]byte("\x89PNG\r\n\x1a\n"), name...)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}

// execute runs the root command in-process.
func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestCommands_Workflow(t *testing.T) {
	dir := testEnv(t)
	cat := writeImage(t, dir, "cat.png")

	if _, stderr, err := execute(t, "", "new", "--image", cat, "--brush", "3"); err != nil {
		t.Fatalf("new failed: %v", err)
	} else if !strings.Contains(stderr, "Started new project: image=cat.png") {
		t.Errorf("new stderr = %q", stderr)
	}

	if _, stderr, err := execute(t, "", "apply", "--filter", "sepia", "--notes", "v2"); err != nil {
		t.Fatalf("apply failed: %v", err)
	} else if !strings.Contains(stderr, `filter=sepia`) || !strings.Contains(stderr, `notes="v2"`) {
		t.Errorf("apply stderr = %q", stderr)
	}

	if _, _, err := execute(t, "", "apply", "--brush", "-1"); err == nil {
		t.Error("negative brush size was accepted")
	}

	if _, stderr, err := execute(t, "", "undo"); err != nil {
		t.Fatalf("undo failed: %v", err)
	} else if !strings.Contains(stderr, "Now at: image=cat.png (image/png") {
		t.Errorf("undo stderr = %q", stderr)
	}

	stdout, _, err := execute(t, "", "show")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	want := []string{
		"*   0  image=cat.png",
		"    1  image=cat.png",
		"can undo: no, can redo: yes",
	}
	for _, w := range want {
		if !strings.Contains(stdout, w) {
			t.Errorf("show output missing %q:\n%s", w, stdout)
		}
	}

	stdout, _, err = execute(t, "", "info")
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	for _, w := range []string{`"trigger": "manual"`, `"key": "studio:test"`, `"previous_save"`} {
		if !strings.Contains(stdout, w) {
			t.Errorf("info output missing %q:\n%s", w, stdout)
		}
	}

	if _, _, err := execute(t, "", "clear"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	_, _, err = execute(t, "", "show")
	if !errors.Is(err, studioerrors.ErrNoSavedProject) {
		t.Errorf("show after clear error = %v, want ErrNoSavedProject", err)
	}
	if !strings.Contains(err.Error(), "studio new --image") {
		t.Errorf("error %q does not explain how to start", err)
	}
}

func TestCommands_FlagsOverrideEnvironment(t *testing.T) {
	dir := testEnv(t)
	cat := writeImage(t, dir, "cat.png")

	other := filepath.Join(dir, "other")
	if _, _, err := execute(t, "", "--path", other, "--key", "flagged", "new", "--image", cat); err != nil {
		t.Fatalf("new failed: %v", err)
	}

	// The environment's store has nothing saved.
	if _, _, err := execute(t, "", "show"); !errors.Is(err, studioerrors.ErrNoSavedProject) {
		t.Errorf("show on env store error = %v, want ErrNoSavedProject", err)
	}
	if _, _, err := execute(t, "", "--path", other, "--key", "flagged", "show"); err != nil {
		t.Errorf("show on flagged store failed: %v", err)
	}
}

func TestCommands_MemoryBackendStartsEmpty(t *testing.T) {
	testEnv(t)

	_, _, err := execute(t, "", "--store", "memory", "show")
	if !errors.Is(err, studioerrors.ErrNoSavedProject) {
		t.Errorf("error = %v, want ErrNoSavedProject", err)
	}
}

func TestSession_Commands(t *testing.T) {
	dir := testEnv(t)
	cat := writeImage(t, dir, "cat.png")

	script := strings.Join([]string{
		"",
		"filter mono",
		"save",
		"image " + cat,
		"image " + cat,
		"brush 5",
		"undo",
		"redo",
		"redo",
		"status",
		"save",
		"exit",
	}, "\n")

	stdout, stderr, err := execute(t, script, "session", "--no-autosave")
	if err != nil {
		t.Fatalf("session failed: %v", err)
	}
	for _, w := range []string{"New project studio:test", "nothing to persist"} {
		if !strings.Contains(stderr, w) {
			t.Errorf("stderr missing %q:\n%s", w, stderr)
		}
	}
	for _, w := range []string{"filter=mono", "No change", "brush=5", "Nothing to redo", "autosave: off", "Saved"} {
		if !strings.Contains(stdout, w) {
			t.Errorf("stdout missing %q:\n%s", w, stdout)
		}
	}

	stdout, _, err = execute(t, "", "show")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(stdout, "*   2  image=cat.png") {
		t.Errorf("saved cursor not on the brush edit:\n%s", stdout)
	}
}

func TestSession_FlushOnEOF(t *testing.T) {
	dir := testEnv(t)
	cat := writeImage(t, dir, "cat.png")

	if _, _, err := execute(t, "image "+cat+"\nprompt a hat\n", "session"); err != nil {
		t.Fatalf("session failed: %v", err)
	}

	stdout, _, err := execute(t, "", "info")
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if !strings.Contains(stdout, `"trigger": "flush"`) {
		t.Errorf("expected the final save to be a flush:\n%s", stdout)
	}
}
