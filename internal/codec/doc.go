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

// Package codec converts binary handles to text-safe payloads and back.
//
// Durable stores used by the studio hold text only, so any image or other
// binary resource carried by an editor snapshot is replaced at the
// serialization boundary by the payload produced here. The default codec
// emits RFC 2397 data URLs:
//
//	data:image/png;base64,iVBORw0KGgo...
//
// Round trips preserve the content bytes, the logical file name and the
// content type. Zero-length files are valid.
package codec
