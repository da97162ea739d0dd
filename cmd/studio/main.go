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
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-studio/pkg/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(mapErrorToExitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "studio",
		Short: "Edit image projects with undo history and autosave",
		Long: `SirSeer Studio keeps an image editing project as a bounded undo/redo
history and persists it, images included, to a durable key/value store.
Interactive sessions autosave shortly after each change and on a fixed
interval.`,
		Version:       version.Version,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // We'll handle error printing ourselves
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Config file (default: .studio.yaml or ~/.sirseer/studio.yaml)")
	pf.StringVar(&flags.project, "project", "", "Project name for per-project config overrides")
	pf.StringVar(&flags.backend, "store", "", "Storage backend: file, sqlite or memory")
	pf.StringVar(&flags.path, "path", "", "Storage directory (file) or database file (sqlite)")
	pf.StringVar(&flags.key, "key", "", "Storage key of the project")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newNewCommand(flags),
		newApplyCommand(flags),
		newUndoCommand(flags),
		newRedoCommand(flags),
		newShowCommand(flags),
		newExportCommand(flags),
		newInfoCommand(flags),
		newClearCommand(flags),
		newSessionCommand(flags),
	)
	return rootCmd
}
