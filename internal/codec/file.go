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

package codec

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// File is a binary handle held by an editor snapshot.
type File struct {
	Name        string
	ContentType string
	Data        []byte
	ModTime     time.Time
}

// Codec encodes binary handles to text and decodes them back.
type Codec interface {
	// Encode returns a text-safe representation of f.
	Encode(ctx context.Context, f *File) (string, error)

	// Decode reconstructs a handle from payload, naming it name.
	Decode(ctx context.Context, payload, name string) (*File, error)
}

// NewFile builds a handle for data, sniffing the content type when
// contentType is empty.
func NewFile(name, contentType string, data []byte) *File {
	if contentType == "" {
		contentType = DetectContentType(data)
	}
	return &File{
		Name:        name,
		ContentType: contentType,
		Data:        data,
		ModTime:     time.Now(),
	}
}

// ReadFile loads a handle from disk.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	f := NewFile(filepath.Base(path), "", data)
	if info, statErr := os.Stat(path); statErr == nil {
		f.ModTime = info.ModTime()
	}
	return f, nil
}

// Size returns the payload length in bytes.
func (f *File) Size() int {
	if f == nil {
		return 0
	}
	return len(f.Data)
}

// Equal reports whether two handles carry the same name, type and bytes.
func (f *File) Equal(other *File) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.Name == other.Name &&
		f.ContentType == other.ContentType &&
		bytes.Equal(f.Data, other.Data)
}

// Sum returns the hex SHA-256 of the payload. It identifies content across
// encode/decode round trips, unlike the handle pointer.
func (f *File) Sum() string {
	if f == nil {
		return ""
	}
	sum := sha256.Sum256(f.Data)
	return hex.EncodeToString(sum[:])
}

// DetectContentType sniffs data, falling back to application/octet-stream.
func DetectContentType(data []byte) string {
	if len(data) == 0 {
		return defaultContentType
	}
	return http.DetectContentType(data)
}

const defaultContentType = "application/octet-stream"
