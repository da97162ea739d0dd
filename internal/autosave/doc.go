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

// Package autosave runs a history's save path on two independent triggers:
// a debounce timer re-armed by every change, and a fixed interval ticker.
//
// The pipeline never saves on start; only changes observed after Start arm
// the debounce timer. Each save reads the source's view at the moment it
// runs, so a timer never writes a state captured when it was armed.
//
// Saves are single-flight. A trigger that arrives while a save is running is
// remembered, and once that save finishes one trailing save runs if the
// source changed in the meantime. Any number of triggers landing during one
// save therefore cost at most one extra save, and triggers with nothing new
// to write cost none.
//
// Close stops both timers. A save already running is left to finish, and the
// status it would report is dropped.
package autosave
