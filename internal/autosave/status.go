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

package autosave

// Status is the outcome of the most recent save cycle.
type Status int

// Save cycle states. A cycle moves from StatusSaving to StatusSaved or
// StatusError, and the result is kept until the next cycle starts.
const (
	StatusIdle Status = iota
	StatusSaving
	StatusSaved
	StatusError
)

// String returns the lower-case name of s.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSaving:
		return "saving"
	case StatusSaved:
		return "saved"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}
