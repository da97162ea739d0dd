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

// Package kvstore provides the durable key/text stores saved projects live in.
//
// A Store is a flat map from string keys to text values with a size limit:
// writes that would exceed the limit fail with errors.ErrQuotaExceeded and
// leave the previous value in place. Three backends are available:
//
//   - MemoryStore keeps values in a map. It is meant for tests and for
//     sessions that should not outlive the process.
//   - FileStore keeps one file per key and writes atomically with the
//     write-to-temp-and-rename pattern, so a crash never leaves a torn value.
//   - SQLiteStore keeps values in a single SQLite table.
//
// RetryStore decorates any Store with exponential backoff on transient
// lock contention. Open builds the configured backend.
package kvstore
