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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-studio/internal/autosave"
	"github.com/sirseerhq/sirseer-studio/internal/editor"
)

const sessionHelp = `Commands:
  image <path>    use an image file as the source
  filter <name>   set the active filter
  prompt <text>   set the generation prompt
  brush <size>    set the mask brush size
  notes <text>    set notes
  undo, redo      move through history
  new             start an empty project
  show            list the history
  status          show autosave status
  save            save now
  help            show this help
  quit            save and exit`

var errQuit = errors.New("quit")

func newSessionCommand(g *globalFlags) *cobra.Command {
	var noAutosave bool

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Edit the project interactively with autosave",
		Long: `Edit the project interactively, one command per line on stdin.

While the session runs, the project is saved shortly after each change and on
a fixed interval (see the autosave section of the config). Autosave failures
only show up in 'status'. Leaving the session saves any pending change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(g, cmd, func(ctx context.Context, a *app) error {
				return runSession(ctx, a, cmd.InOrStdin(), !noAutosave && a.cfg.Autosave.Enabled)
			})
		},
	}
	cmd.Flags().BoolVar(&noAutosave, "no-autosave", false, "Disable autosave for this session")
	return cmd
}

// runSession loads the project, optionally starts autosave, and executes
// commands from in until quit, EOF or cancellation.
func runSession(ctx context.Context, a *app, in io.Reader, withAutosave bool) error {
	found, err := a.session.Open(ctx)
	if err != nil {
		return err
	}
	if found {
		fmt.Fprintf(a.errOut, "Opened %s at snapshot %d of %d\n",
			a.cfg.Storage.Key, a.session.History().Cursor()+1, a.session.History().Len())
	} else {
		fmt.Fprintf(a.errOut, "New project %s\n", a.cfg.Storage.Key)
	}

	if withAutosave {
		a.session.StartAutosave(autosave.Options{
			Debounce: a.cfg.Autosave.Debounce,
			Interval: a.cfg.Autosave.Interval,
			Timeout:  a.cfg.Autosave.Timeout,
			Logger:   a.logger,
		})
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

readCommands:
	for {
		select {
		case <-ctx.Done():
			break readCommands
		case line, ok := <-lines:
			if !ok {
				break readCommands
			}
			err := runSessionCommand(ctx, a, line)
			if errors.Is(err, errQuit) {
				break readCommands
			}
			if err != nil {
				fmt.Fprintf(a.errOut, "Error: %v\n", err)
			}
		}
	}

	// Cancellation must not stop the final save.
	if err := a.session.Close(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	if !withAutosave {
		return a.finalManualSave(ctx)
	}
	return nil
}

// finalManualSave saves on exit when autosave is off. An empty project is
// not an error here.
func (a *app) finalManualSave(ctx context.Context) error {
	if a.session.Current().Empty() {
		return nil
	}
	return a.save(context.WithoutCancel(ctx))
}

// runSessionCommand executes one session line.
func runSessionCommand(ctx context.Context, a *app, line string) error {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	set := func(fn func(editor.ImageState) editor.ImageState) {
		if a.session.Apply(fn) {
			fmt.Fprintf(a.out, "%s\n", editor.Describe(a.session.Current()))
		} else {
			fmt.Fprintln(a.out, "No change")
		}
	}

	switch name {
	case "":
		return nil
	case "image":
		if arg == "" {
			return fmt.Errorf("usage: image <path>")
		}
		changed, err := a.session.SetImage(arg)
		if err != nil {
			return err
		}
		if changed {
			fmt.Fprintf(a.out, "%s\n", editor.Describe(a.session.Current()))
		} else {
			fmt.Fprintln(a.out, "No change")
		}
	case "filter":
		set(func(st editor.ImageState) editor.ImageState { st.Filter = arg; return st })
	case "prompt":
		set(func(st editor.ImageState) editor.ImageState { st.Prompt = arg; return st })
	case "notes":
		set(func(st editor.ImageState) editor.ImageState { st.Notes = arg; return st })
	case "brush":
		size, err := strconv.Atoi(arg)
		if err != nil || size < 0 {
			return fmt.Errorf("brush size must be a non-negative integer, got: %q", arg)
		}
		set(func(st editor.ImageState) editor.ImageState { st.Brush = size; return st })
	case "undo":
		if !a.session.Undo() {
			fmt.Fprintln(a.out, "Nothing to undo")
			return nil
		}
		fmt.Fprintf(a.out, "%s\n", editor.Describe(a.session.Current()))
	case "redo":
		if !a.session.Redo() {
			fmt.Fprintln(a.out, "Nothing to redo")
			return nil
		}
		fmt.Fprintf(a.out, "%s\n", editor.Describe(a.session.Current()))
	case "new":
		a.session.NewProject(editor.ImageState{})
		fmt.Fprintln(a.out, "Started an empty project; the saved one is kept until an image is set")
	case "show":
		printHistory(a.out, a.session)
	case "status":
		printStatus(a.out, a.session.Autosave())
	case "save":
		if err := a.save(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Saved")
	case "help":
		fmt.Fprintln(a.out, sessionHelp)
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q, try 'help'", name)
	}
	return nil
}

// printStatus reports the autosave pipeline's state.
func printStatus(w io.Writer, p *autosave.Pipeline[editor.ImageState]) {
	if p == nil {
		fmt.Fprintln(w, "autosave: off")
		return
	}
	line := fmt.Sprintf("autosave: %s", p.Status())
	if label := p.LastSavedLabel(); label != "" {
		line += ", last saved " + label
	}
	if err := p.LastError(); err != nil {
		line += fmt.Sprintf(" (%v)", err)
	}
	fmt.Fprintln(w, line)

	s := p.Stats()
	fmt.Fprintf(w, "saves: %d, failures: %d, coalesced triggers: %d, avg save: %s\n",
		s.Saves, s.Failures, s.Coalesced, s.AvgSaveTime)
}
