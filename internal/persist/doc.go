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

// Package persist converts an editor history into a durable, text-only record
// and reconstructs a history from such a record.
//
// Binary handles cannot be stored as text, so at the serialization boundary
// every handle is replaced by a Placeholder holding the codec's encoded payload
// and the handle's original name. Loading reverses the substitution. Records
// carry a format version and a SHA-256 checksum so a truncated or hand-edited
// record is rejected instead of being installed.
//
// A Protocol ties the record format to a kvstore.Store under a configurable
// key. Its Save and Load methods form the manual path and report every failure
// to the caller. AutoSaver returns the function an autosave.Pipeline drives;
// failures on that path only ever reach the pipeline's status.
//
// Example usage:
//
//	p := &persist.Protocol[editor.ImageState]{
//	    Store:  store,
//	    Key:    "studio:project",
//	    Codec:  codec.NewDataURLCodec(),
//	    Binder: editor.Binder{},
//	}
//	if err := p.Save(ctx, hist.View()); err != nil {
//	    return err
//	}
package persist
