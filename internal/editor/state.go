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

package editor

import (
	"fmt"
	"strings"

	"github.com/sirseerhq/sirseer-studio/internal/codec"
)

// SourceField is the binder field name of the image source.
const SourceField = "source"

// ImageState is one editor snapshot. Source is a binary handle and is left
// out of JSON, so history equality only sees the remaining fields.
type ImageState struct {
	Source *codec.File `json:"-"`
	Filter string      `json:"filter,omitempty"`
	Prompt string      `json:"prompt,omitempty"`
	Brush  int         `json:"brush,omitempty"`
	Notes  string      `json:"notes,omitempty"`

	// SourceName tracks the image identity for equality, since Source
	// itself is excluded.
	SourceName string `json:"source_name,omitempty"`
	SourceSum  string `json:"source_sum,omitempty"`
}

// WithSource returns a copy of s showing f.
func (s ImageState) WithSource(f *codec.File) ImageState {
	s.Source = f
	s.SourceName, s.SourceSum = "", ""
	if f != nil {
		s.SourceName = f.Name
		s.SourceSum = f.Sum()
	}
	return s
}

// Empty reports whether s has no image.
func (s ImageState) Empty() bool {
	return s.Source == nil
}

// Describe renders s as a single line for listings.
func Describe(s ImageState) string {
	var parts []string
	if s.Source != nil {
		parts = append(parts, fmt.Sprintf("image=%s (%s, %d bytes)", s.Source.Name, s.Source.ContentType, s.Source.Size()))
	} else {
		parts = append(parts, "image=<none>")
	}
	if s.Filter != "" {
		parts = append(parts, "filter="+s.Filter)
	}
	if s.Prompt != "" {
		parts = append(parts, fmt.Sprintf("prompt=%q", s.Prompt))
	}
	if s.Brush != 0 {
		parts = append(parts, fmt.Sprintf("brush=%d", s.Brush))
	}
	if s.Notes != "" {
		parts = append(parts, fmt.Sprintf("notes=%q", s.Notes))
	}
	return strings.Join(parts, " ")
}

// Binder maps ImageState to its single binary field.
type Binder struct{}

// Handles implements persist.Binder.
func (Binder) Handles(s ImageState) map[string]*codec.File {
	if s.Source == nil {
		return nil
	}
	return map[string]*codec.File{SourceField: s.Source}
}

// Attach implements persist.Binder. The image identity fields are kept as
// stored so a cleared snapshot still compares equal to its original.
func (Binder) Attach(s ImageState, handles map[string]*codec.File) ImageState {
	s.Source = handles[SourceField]
	return s
}
