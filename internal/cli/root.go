// Package cli implements the ls-odl command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/litescript/ls-odl/internal/alignment"
	"github.com/litescript/ls-odl/internal/astro"
	"github.com/litescript/ls-odl/internal/block"
	"github.com/litescript/ls-odl/internal/codec"
	"github.com/litescript/ls-odl/internal/config"
	"github.com/litescript/ls-odl/internal/instrument"
	"github.com/litescript/ls-odl/internal/logging"
	"github.com/litescript/ls-odl/internal/ui"
)

// app is the state shared by every subcommand once configuration is loaded.
type app struct {
	cfg      config.Config
	log      *logging.Logger
	profiles instrument.Set
	dec      *codec.Decoder
}

// finalizeOptions returns the composition options for the configured
// instrument and profiles.
func (a *app) finalizeOptions() block.Options {
	return block.Options{ExpectInstrument: a.cfg.Instrument, Limits: a.profiles.Limits}
}

func (a *app) observer() astro.Observer {
	return astro.Observer{Name: a.cfg.Observer.Name, LatDeg: a.cfg.Observer.LatDeg, LonDeg: a.cfg.Observer.LonDeg}
}

// readList decodes an observing block file. "-" reads YAML from stdin.
func (a *app) readList(cmd *cobra.Command, path string) (block.List, error) {
	if path == "-" {
		return a.dec.Decode(cmd.InOrStdin(), codec.YAML)
	}
	return a.dec.ReadFile(path)
}

// NewRootCmd builds the command tree. Each call returns an independent tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "ls-odl",
		Short:         "Observing block description language tools",
		Long:          "ls-odl validates, summarises, plans and stores observing block lists.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default .ls-odl.yaml)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("profiles-dir", "", "directory of extra instrument profiles (*.toml)")
	pf.String("instrument", "", "require every block to be for this instrument")
	pf.String("catalog", "", "catalog database path")
	pf.Bool("no-color", false, "disable styled output")

	for key, flag := range map[string]string{
		"log_level":    "log-level",
		"profiles_dir": "profiles-dir",
		"instrument":   "instrument",
		"catalog_path": "catalog",
	} {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newValidateCmd(a),
		newSummaryCmd(a),
		newPlanCmd(a),
		newExpandCmd(a),
		newResolveCmd(a),
		newStarlistCmd(a),
		newBrowseCmd(a),
		newServeCmd(a),
		newCatalogCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	if err := config.Init(cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.log = logging.New(logging.ParseLevel(cfg.LogLevel))
	a.log.SetOutput(cmd.ErrOrStderr())

	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor || !isTerminal(cmd.OutOrStdout()) {
		ui.DisableColor()
	}

	a.profiles, err = instrument.LoadProfiles(cfg.ProfilesDir)
	if err != nil {
		return fmt.Errorf("loading instrument profiles: %w", err)
	}
	a.dec = &codec.Decoder{
		Profiles: a.profiles,
		Defaults: alignment.Defaults{GuiderBright: cfg.Alignment.GuiderBright},
	}
	a.log.Debug("Loaded %d instrument profiles", len(a.profiles))
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// parseAt parses an RFC 3339 time. Empty and "now" mean the current time.
func parseAt(s string) (time.Time, error) {
	if s == "" || s == "now" {
		return time.Now().UTC(), nil
	}
	if rel, ok := strings.CutPrefix(s, "now"); ok && (rel[0] == '+' || rel[0] == '-') {
		d, err := time.ParseDuration(rel)
		if err != nil {
			return time.Time{}, fmt.Errorf("--at: %w", err)
		}
		return astro.NowPlus(time.Now().UTC(), d), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--at: %w", err)
	}
	return t.UTC(), nil
}

// Execute runs the command tree with args and returns the process exit
// code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}
