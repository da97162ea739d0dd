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

// Package output writes editor history as NDJSON (Newline Delimited JSON),
// one snapshot per line, for inspection and for piping into other tools.
//
// Writer is a thread-safe, buffered NDJSON encoder over an io.Writer or a
// file. ExportHistory walks a history view and writes one SnapshotRecord per
// snapshot, marking the one the cursor designates. Binary payloads are never
// written; a record carries the image's name, type, size and digest instead.
//
// Example usage:
//
//	w, err := output.NewFileWriter("history.ndjson")
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	if _, err := output.ExportHistory(w, session.History().View()); err != nil {
//	    return err
//	}
package output
