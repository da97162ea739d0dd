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
	"errors"

	studioerrors "github.com/sirseerhq/sirseer-studio/internal/errors"
)

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, studioerrors.ErrQuotaExceeded) {
		return 3 // Storage quota
	}

	if errors.Is(err, studioerrors.ErrNoSavedProject) {
		return 4 // Nothing saved under the key
	}

	if errors.Is(err, studioerrors.ErrInvalidHistory) ||
		errors.Is(err, studioerrors.ErrCodec) ||
		errors.Is(err, studioerrors.ErrCorruptRecord) {
		return 2 // Invalid or unreadable project data
	}

	return 1 // General error
}
