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

// Package history provides a bounded undo/redo store for editor snapshots.
//
// A Store holds an ordered sequence of immutable snapshots and a cursor that
// designates the current one. Commit appends after the cursor and discards
// the redo branch; when the sequence grows past its limit the oldest entries
// are evicted and the cursor shifts so it keeps pointing at the same
// snapshot.
//
// Commits equal to the current snapshot are ignored. By default equality is
// decided on the JSON encoding of the snapshot, so fields tagged `json:"-"`
// (binary handles in particular) never take part in it. A handle rebuilt
// from storage is a new value every time; letting it participate would make
// every commit look distinct.
//
// Every effective mutation bumps a revision counter and is announced to
// subscribers, which is how the autosave pipeline observes the store.
//
// Example usage:
//
//	h := history.New(ImageState{Filter: "none"}, history.WithLimit[ImageState](50))
//	h.Commit(ImageState{Filter: "sepia"})
//	h.Undo()
//	fmt.Println(h.Current().Filter) // none
package history
