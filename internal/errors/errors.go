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

// Package errors defines sentinel errors for consistent error handling across the application.
// These errors map to specific exit codes in the CLI for proper scripting support.
package errors

import "errors"

// Sentinel errors for consistent error handling and exit code mapping
var (
	// ErrInvalidHistory indicates LoadHistory was called with an empty sequence
	// or an out-of-range cursor. The existing history is left untouched.
	// Maps to exit code 2.
	ErrInvalidHistory = errors.New("invalid history")

	// ErrCodec indicates a binary handle could not be encoded or decoded.
	// The enclosing save or load is aborted as a whole.
	// Maps to exit code 2.
	ErrCodec = errors.New("binary codec failure")

	// ErrCorruptRecord indicates a persisted record failed version or checksum validation.
	// Maps to exit code 2.
	ErrCorruptRecord = errors.New("persisted record is corrupted")

	// ErrSaveFailed indicates the save callback failed. Autosave reports it
	// only through its status.
	ErrSaveFailed = errors.New("save failed")

	// ErrSaveTimeout indicates a save did not complete within its deadline.
	ErrSaveTimeout = errors.New("save timed out")

	// ErrQuotaExceeded indicates the durable store rejected a write due to size.
	// Maps to exit code 3.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrNothingToPersist indicates the current snapshot carries no binary payload,
	// so writing would replace a valid record with an empty project.
	ErrNothingToPersist = errors.New("nothing to persist")

	// ErrNoSavedProject indicates no record exists under the configured key.
	// Maps to exit code 4.
	ErrNoSavedProject = errors.New("no saved project")
)
