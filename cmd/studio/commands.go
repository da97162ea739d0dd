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
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sirseerhq/sirseer-studio/internal/codec"
	"github.com/sirseerhq/sirseer-studio/internal/editor"
	studioerrors "github.com/sirseerhq/sirseer-studio/internal/errors"
	"github.com/sirseerhq/sirseer-studio/internal/metadata"
	"github.com/sirseerhq/sirseer-studio/internal/output"
)

// editFlags are the state fields a command may set.
type editFlags struct {
	image  string
	filter string
	prompt string
	brush  int
	notes  string
}

func (e *editFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&e.image, "image", "", "Image file to use as the source")
	flags.StringVar(&e.filter, "filter", "", "Active filter name")
	flags.StringVar(&e.prompt, "prompt", "", "Generation prompt")
	flags.IntVar(&e.brush, "brush", 0, "Mask brush size")
	flags.StringVar(&e.notes, "notes", "", "Free-form notes")
}

// apply returns st with every flag the user set applied.
func (e *editFlags) apply(flags *pflag.FlagSet, st editor.ImageState) (editor.ImageState, error) {
	if flags.Changed("image") {
		f, err := codec.ReadFile(e.image)
		if err != nil {
			return st, err
		}
		st = st.WithSource(f)
	}
	if flags.Changed("filter") {
		st.Filter = e.filter
	}
	if flags.Changed("prompt") {
		st.Prompt = e.prompt
	}
	if flags.Changed("brush") {
		if e.brush < 0 {
			return st, fmt.Errorf("brush size must not be negative, got: %d", e.brush)
		}
		st.Brush = e.brush
	}
	if flags.Changed("notes") {
		st.Notes = e.notes
	}
	return st, nil
}

func newNewCommand(g *globalFlags) *cobra.Command {
	edits := &editFlags{}

	cmd := &cobra.Command{
		Use:   "new --image <file>",
		Short: "Start a new project from an image",
		Long: `Start a new project from an image, discarding the saved history.

The new project replaces the saved one only once it is written, and a project
without an image is never written over a saved one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(g, cmd, func(ctx context.Context, a *app) error {
				seed, err := edits.apply(cmd.Flags(), editor.ImageState{})
				if err != nil {
					return err
				}
				a.session.NewProject(seed)
				if err := a.save(ctx); err != nil {
					return err
				}
				fmt.Fprintf(a.errOut, "Started new project: %s\n", editor.Describe(seed))
				return nil
			})
		},
	}
	edits.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func newApplyCommand(g *globalFlags) *cobra.Command {
	edits := &editFlags{}

	cmd := &cobra.Command{
		Use:   "apply [flags]",
		Short: "Commit an edit to the saved project",
		Long: `Commit an edit to the saved project. Only the flags given change the
current state; an edit equal to the current state is not recorded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(g, cmd, func(ctx context.Context, a *app) error {
				if err := a.load(ctx); err != nil {
					return err
				}
				next, err := edits.apply(cmd.Flags(), a.session.Current())
				if err != nil {
					return err
				}
				if !a.session.Apply(func(editor.ImageState) editor.ImageState { return next }) {
					fmt.Fprintln(a.errOut, "No change")
					return nil
				}
				if err := a.save(ctx); err != nil {
					return err
				}
				fmt.Fprintf(a.errOut, "Applied: %s\n", editor.Describe(next))
				return nil
			})
		},
	}
	edits.register(cmd.Flags())
	return cmd
}

func newUndoCommand(g *globalFlags) *cobra.Command {
	return newMoveCommand(g, "undo", "Step back one edit", "Nothing to undo", (*editor.Session).Undo)
}

func newRedoCommand(g *globalFlags) *cobra.Command {
	return newMoveCommand(g, "redo", "Step forward one edit", "Nothing to redo", (*editor.Session).Redo)
}

// newMoveCommand builds undo and redo, which differ only in direction.
func newMoveCommand(g *globalFlags, use, short, noop string, move func(*editor.Session) bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(g, cmd, func(ctx context.Context, a *app) error {
				if err := a.load(ctx); err != nil {
					return err
				}
				if !move(a.session) {
					fmt.Fprintln(a.errOut, noop)
					return nil
				}
				if err := a.save(ctx); err != nil {
					return err
				}
				fmt.Fprintf(a.errOut, "Now at: %s\n", editor.Describe(a.session.Current()))
				return nil
			})
		},
	}
}

func newShowCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List the saved history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(g, cmd, func(ctx context.Context, a *app) error {
				if err := a.load(ctx); err != nil {
					return err
				}
				printHistory(a.out, a.session)
				return nil
			})
		},
	}
}

// printHistory lists every snapshot, marking the current one.
func printHistory(w io.Writer, s *editor.Session) {
	view := s.History().View()
	for i, st := range view.Snapshots {
		marker := " "
		if i == view.Cursor {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %3d  %s\n", marker, i, editor.Describe(st))
	}
	fmt.Fprintf(w, "can undo: %s, can redo: %s\n", yesNo(s.History().CanUndo()), yesNo(s.History().CanRedo()))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func newExportCommand(g *globalFlags) *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the saved history as NDJSON",
		Long: `Export the saved history as NDJSON, one snapshot per line. Image bytes
are not exported; each line carries the image name, type, size and SHA-256.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(g, cmd, func(ctx context.Context, a *app) error {
				if err := a.load(ctx); err != nil {
					return err
				}

				var writer output.RecordWriter
				if outputFile == "" {
					writer = output.NewWriter(a.out)
				} else {
					fileWriter, err := output.NewFileWriter(outputFile)
					if err != nil {
						return err
					}
					writer = fileWriter
				}

				n, err := output.ExportHistory(writer, a.session.History().View())
				if cerr := writer.Close(); err == nil {
					err = cerr
				}
				if err != nil {
					return err
				}
				if outputFile != "" {
					fmt.Fprintf(a.errOut, "Exported %d snapshots to %s\n", n, outputFile)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&outputFile, "output", "", "Output file path (default: stdout)")
	return cmd
}

func newInfoCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print metadata of the last save",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(g, cmd, func(ctx context.Context, a *app) error {
				md, err := a.session.Protocol().LastMetadata(ctx)
				if err != nil {
					return err
				}
				if md == nil {
					return fmt.Errorf("%w under key %s", studioerrors.ErrNoSavedProject, a.cfg.Storage.Key)
				}
				return metadata.WriteMetadataToWriter(md, a.out)
			})
		},
	}
}

func newClearCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(g, cmd, func(ctx context.Context, a *app) error {
				if err := a.session.Protocol().Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintf(a.errOut, "Cleared project %s\n", a.cfg.Storage.Key)
				return nil
			})
		},
	}
}
