package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/litescript/ls-odl/internal/block"
	"github.com/litescript/ls-odl/internal/ui"
)

const watchDebounce = 100 * time.Millisecond

func newValidateCmd(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check every block of a list against the composition rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return a.watchValidate(cmd, args[0])
			}
			return a.validate(cmd.Context(), cmd, args[0])
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-validate whenever the file changes")
	return cmd
}

// validate decodes and finalizes path, printing violations. The error
// counts invalid blocks.
func (a *app) validate(ctx context.Context, cmd *cobra.Command, path string) error {
	l, err := a.readList(cmd, path)
	if err != nil {
		return err
	}
	final, err := l.FinalizeAll(ctx, a.finalizeOptions())
	out := cmd.OutOrStdout()
	if err != nil {
		if werr := ui.WriteViolations(out, err); werr != nil {
			return werr
		}
	}
	return reportTotals(out, final, err)
}

func reportTotals(out io.Writer, l block.List, err error) error {
	t := l.Totals(nil)
	if t.Invalid > 0 {
		return fmt.Errorf("%d of %d blocks invalid", t.Invalid, t.Blocks)
	}
	if err != nil {
		return err
	}
	_, werr := fmt.Fprintf(out, "%s: %d blocks valid\n", l.Name, t.Valid)
	return werr
}

// watchValidate validates path now and again after every write, until the
// command context is cancelled. Editors that replace the file are handled
// by watching its directory.
func (a *app) watchValidate(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	run := func() {
		if err := a.validate(ctx, cmd, abs); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		}
	}
	run()

	var pending bool
	var last time.Time
	ticker := time.NewTicker(watchDebounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending = true
				last = time.Now()
			}

		case <-ticker.C:
			if pending && time.Since(last) >= watchDebounce {
				pending = false
				a.log.Debug("%s changed", abs)
				fmt.Fprintln(cmd.OutOrStdout())
				run()
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			a.log.Warn("Watching %s: %v", abs, err)
		}
	}
}
