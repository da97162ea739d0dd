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
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sirseerhq/sirseer-studio/internal/autosave"
	"github.com/sirseerhq/sirseer-studio/internal/codec"
	studioerrors "github.com/sirseerhq/sirseer-studio/internal/errors"
	"github.com/sirseerhq/sirseer-studio/internal/history"
	"github.com/sirseerhq/sirseer-studio/internal/kvstore"
	"github.com/sirseerhq/sirseer-studio/internal/persist"
)

// SessionConfig configures a Session.
type SessionConfig struct {
	Store  kvstore.Store
	Key    string
	Codec  codec.Codec
	Limit  int
	Logger *slog.Logger
}

// Session is one open project: its history, the protocol that persists it
// and, once started, an autosave pipeline.
type Session struct {
	hist     *history.Store[ImageState]
	proto    *persist.Protocol[ImageState]
	pipeline *autosave.Pipeline[ImageState]
	logger   *slog.Logger
}

// NewSession creates a session holding an empty project.
func NewSession(cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := cfg.Codec
	if c == nil {
		c = codec.NewDataURLCodec()
	}
	limit := cfg.Limit
	if limit == 0 {
		limit = history.DefaultLimit
	}

	return &Session{
		hist: history.New(ImageState{}, history.WithLimit[ImageState](limit)),
		proto: &persist.Protocol[ImageState]{
			Store:  cfg.Store,
			Key:    cfg.Key,
			Codec:  c,
			Binder: Binder{},
			Logger: logger,
		},
		logger: logger,
	}
}

// Open loads the saved project, if any. It reports whether one was found.
func (s *Session) Open(ctx context.Context) (bool, error) {
	err := s.proto.Load(ctx, s.hist)
	if errors.Is(err, studioerrors.ErrNoSavedProject) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// StartAutosave starts an autosave pipeline over the session's history.
// The current state counts as already saved.
func (s *Session) StartAutosave(opts autosave.Options) *autosave.Pipeline[ImageState] {
	if s.pipeline != nil {
		return s.pipeline
	}
	if opts.Logger == nil {
		opts.Logger = s.logger
	}
	s.pipeline = autosave.Start[ImageState](s.hist, s.proto.AutoSaver(), opts)
	return s.pipeline
}

// History returns the session's history store.
func (s *Session) History() *history.Store[ImageState] {
	return s.hist
}

// Protocol returns the session's persistence protocol.
func (s *Session) Protocol() *persist.Protocol[ImageState] {
	return s.proto
}

// Autosave returns the running pipeline, nil when autosave is off.
func (s *Session) Autosave() *autosave.Pipeline[ImageState] {
	return s.pipeline
}

// Current returns the current snapshot.
func (s *Session) Current() ImageState {
	return s.hist.Current()
}

// Apply commits fn applied to the current snapshot and reports whether the
// history changed.
func (s *Session) Apply(fn func(ImageState) ImageState) bool {
	before := s.hist.Revision()
	s.hist.Commit(fn(s.hist.Current()))
	return s.hist.Revision() != before
}

// SetImage loads path from disk and makes it the current image.
func (s *Session) SetImage(path string) (bool, error) {
	f, err := codec.ReadFile(path)
	if err != nil {
		return false, err
	}
	return s.Apply(func(st ImageState) ImageState { return st.WithSource(f) }), nil
}

// Undo steps back one snapshot.
func (s *Session) Undo() bool {
	return s.hist.Undo()
}

// Redo steps forward one snapshot.
func (s *Session) Redo() bool {
	return s.hist.Redo()
}

// NewProject discards the history and starts over from seed. The saved
// project is kept until a non-empty state is saved over it.
func (s *Session) NewProject(seed ImageState) {
	s.hist.Reset(seed)
}

// Save writes the history now and reports every failure.
func (s *Session) Save(ctx context.Context) error {
	return s.proto.Save(ctx, s.hist.View())
}

// Close flushes and stops the autosave pipeline, if one is running. The
// flush is the user's final save: unlike automatic saves, its failure is
// returned, and a quota failure still matches ErrQuotaExceeded.
func (s *Session) Close(ctx context.Context) error {
	if s.pipeline == nil {
		return nil
	}
	err := s.pipeline.Flush(ctx)
	s.pipeline.Close()
	if err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	return nil
}
