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
	"compress/gzip"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/url"
	"sort"
	"strings"
	"time"

	studioerrors "github.com/sirseerhq/sirseer-studio/internal/errors"
)

const (
	dataURLPrefix = "data:"
	base64Marker  = "base64"
	gzipMarker    = "gzip"
)

// DataURLCodec encodes handles as base64 data URLs. With Compress set the
// bytes are gzipped first and the URL carries a ";gzip" marker. Decode
// honours the marker whatever Compress is set to.
type DataURLCodec struct {
	Compress bool
}

// NewDataURLCodec returns a codec emitting plain base64 data URLs.
func NewDataURLCodec() *DataURLCodec {
	return &DataURLCodec{}
}

// Encode implements Codec.
func (c *DataURLCodec) Encode(ctx context.Context, f *File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: encode: %w", studioerrors.ErrCodec, err)
	}
	if f == nil {
		return "", fmt.Errorf("%w: encode: nil file handle", studioerrors.ErrCodec)
	}

	mediaType, err := formatMediaType(f.ContentType, f.Data)
	if err != nil {
		return "", fmt.Errorf("%w: encode %q: %w", studioerrors.ErrCodec, f.Name, err)
	}

	data := f.Data
	var b strings.Builder
	b.WriteString(dataURLPrefix)
	b.WriteString(mediaType)
	if c.Compress {
		data, err = gzipBytes(data)
		if err != nil {
			return "", fmt.Errorf("%w: encode %q: %w", studioerrors.ErrCodec, f.Name, err)
		}
		b.WriteString(";" + gzipMarker)
	}
	b.WriteString(";" + base64Marker + ",")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String(), nil
}

// Decode implements Codec.
func (c *DataURLCodec) Decode(ctx context.Context, payload, name string) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: decode %q: %w", studioerrors.ErrCodec, name, err)
	}
	if !strings.HasPrefix(payload, dataURLPrefix) {
		return nil, fmt.Errorf("%w: decode %q: payload is not a data URL", studioerrors.ErrCodec, name)
	}

	header, body, ok := strings.Cut(payload[len(dataURLPrefix):], ",")
	if !ok {
		return nil, fmt.Errorf("%w: decode %q: missing data separator", studioerrors.ErrCodec, name)
	}

	contentType, compressed, isBase64, err := parseHeader(header)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %q: %w", studioerrors.ErrCodec, name, err)
	}
	if !isBase64 {
		return nil, fmt.Errorf("%w: decode %q: only base64 data URLs are supported", studioerrors.ErrCodec, name)
	}

	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %q: %w", studioerrors.ErrCodec, name, err)
	}
	if compressed {
		data, err = gunzipBytes(data)
		if err != nil {
			return nil, fmt.Errorf("%w: decode %q: %w", studioerrors.ErrCodec, name, err)
		}
	}

	return &File{
		Name:        name,
		ContentType: contentType,
		Data:        data,
		ModTime:     time.Now(),
	}, nil
}

// formatMediaType renders a content type in data URL form: no spaces, params
// joined with ";". Parameter values are percent-escaped so that "," and ";"
// inside them cannot end the header early.
func formatMediaType(contentType string, data []byte) (string, error) {
	if contentType == "" {
		contentType = DetectContentType(data)
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("invalid content type %q: %w", contentType, err)
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(mediaType)
	for _, k := range keys {
		b.WriteString(";" + k + "=" + url.PathEscape(params[k]))
	}
	return b.String(), nil
}

// parseHeader splits the part of a data URL before the comma into a content
// type and the gzip/base64 markers.
func parseHeader(header string) (contentType string, compressed, isBase64 bool, err error) {
	parts := strings.Split(header, ";")
	mediaType := parts[0]
	params := map[string]string{}
	for _, p := range parts[1:] {
		switch p {
		case base64Marker:
			isBase64 = true
		case gzipMarker:
			compressed = true
		default:
			if k, v, ok := strings.Cut(p, "="); ok {
				value, err := url.PathUnescape(v)
				if err != nil {
					return "", false, false, fmt.Errorf("invalid media type parameter %q: %w", k, err)
				}
				params[k] = value
			}
		}
	}

	if mediaType == "" {
		// RFC 2397 default.
		mediaType = "text/plain"
		if _, ok := params["charset"]; !ok {
			params["charset"] = "US-ASCII"
		}
	}
	contentType = mime.FormatMediaType(mediaType, params)
	if contentType == "" {
		contentType = defaultContentType
	}
	return contentType, compressed, isBase64, nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzipBytes(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
