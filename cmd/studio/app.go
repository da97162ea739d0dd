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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-studio/internal/codec"
	"github.com/sirseerhq/sirseer-studio/internal/config"
	"github.com/sirseerhq/sirseer-studio/internal/editor"
	studioerrors "github.com/sirseerhq/sirseer-studio/internal/errors"
	"github.com/sirseerhq/sirseer-studio/internal/kvstore"
)

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	project    string
	backend    string
	path       string
	key        string
	logLevel   string
}

// app is the wiring behind one command invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   kvstore.Store
	session *editor.Session
	out     io.Writer
	errOut  io.Writer
}

// loadConfig resolves configuration: file, then environment, then flags.
func (g *globalFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfigForProject(g.configPath, g.project)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Storage.Backend = g.backend
	}
	if flags.Changed("path") {
		cfg.Storage.Path = g.path
	}
	if flags.Changed("key") {
		cfg.Storage.Key = g.key
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// open builds the store and an editor session for cmd.
func (g *globalFlags) open(cmd *cobra.Command) (*app, error) {
	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := cfg.Log.NewLogger(cmd.ErrOrStderr())
	store, err := kvstore.Open(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Storage.Backend, err)
	}

	session := editor.NewSession(editor.SessionConfig{
		Store:  store,
		Key:    cfg.Storage.Key,
		Codec:  &codec.DataURLCodec{Compress: cfg.Storage.Compress},
		Limit:  cfg.History.Limit,
		Logger: logger,
	})

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		session: session,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
	}, nil
}

// Close releases the store.
func (a *app) Close() error {
	return a.store.Close()
}

// load opens the saved project and fails when there is none.
func (a *app) load(ctx context.Context) error {
	found, err := a.session.Open(ctx)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w under key %s. Use 'studio new --image <file>' first",
			studioerrors.ErrNoSavedProject, a.cfg.Storage.Key)
	}
	return nil
}

// save runs the manual save path, explaining an empty project.
func (a *app) save(ctx context.Context) error {
	err := a.session.Save(ctx)
	if errors.Is(err, studioerrors.ErrNothingToPersist) {
		return fmt.Errorf("%w: the current state has no image, the saved project was left unchanged", err)
	}
	return err
}

// withApp opens an app for cmd, runs fn and closes it.
func withApp(g *globalFlags, cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := g.open(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			a.logger.Warn("failed to close store", "error", cerr)
		}
	}()
	return fn(cmd.Context(), a)
}
