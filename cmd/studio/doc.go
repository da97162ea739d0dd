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

// Package main implements the studio command-line interface.
// The tool edits an image project with undo/redo history and keeps it in a
// durable key/value store, autosaving in the background during interactive
// sessions.
//
// The CLI supports:
//   - Starting a project from an image file (new)
//   - Committing edits and moving through history (apply, undo, redo)
//   - Inspecting the saved history and its last save (show, export, info)
//   - An interactive session with debounce and interval autosave (session)
//   - File, SQLite and in-memory storage backends
//
// Usage:
//
//	studio <command> [flags]
//
// Example:
//
//	studio new --image cat.png
//	studio apply --filter sepia
//	studio undo
//	studio export --output history.ndjson
//
// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Invalid history, codec failure or corrupted record
//   - 3: Storage quota exceeded
//   - 4: No saved project
package main
