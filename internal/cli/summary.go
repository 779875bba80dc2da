package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-odl/internal/astro"
	"github.com/litescript/ls-odl/internal/block"
	"github.com/litescript/ls-odl/internal/ui"
)

func newSummaryCmd(a *app) *cobra.Command {
	var (
		verbose bool
		observe bool
		at      string
	)
	cmd := &cobra.Command{
		Use:   "summary <file>",
		Short: "Print exposures and time estimates for a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseAt(at)
			if err != nil {
				return err
			}
			l, err := a.readList(cmd, args[0])
			if err != nil {
				return err
			}
			// Invalid blocks are still summarised; their state shows in the table.
			l, _ = l.FinalizeAll(cmd.Context(), a.finalizeOptions())

			out := cmd.OutOrStdout()
			if verbose {
				err = ui.WriteDetail(out, l, a.profiles.Limits)
			} else {
				err = ui.WriteSummary(out, l, a.profiles.Limits)
			}
			if err != nil {
				return err
			}
			if observe {
				return writeObservability(out, l, a.observer(), when)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&verbose, "verbose", false, "describe every block in full")
	cmd.Flags().BoolVar(&observe, "observability", false, "add elevation and airmass of each target")
	cmd.Flags().StringVar(&at, "at", "now", "time for --observability (RFC 3339, or now+/-duration)")
	return cmd
}

func writeObservability(w io.Writer, l block.List, obs astro.Observer, at time.Time) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\nFrom %s at %s\n", obs.Name, at.Format(time.RFC3339))
	fmt.Fprintf(&b, "%3s %-20s %12s %12s %6s %7s %7s\n", "#", "Target", "RA", "Dec", "El", "Airmass", "Sun")
	for i, blk := range l.All() {
		t := blk.Target()
		if t == nil || t.Position == nil {
			continue
		}
		o, err := t.Observability(obs, at)
		if err != nil {
			fmt.Fprintf(&b, "%3d %-20s %s\n", i+1, t.Name, err)
			continue
		}
		p, err := t.Propagate(at)
		if err != nil {
			return err
		}
		airmass := "-"
		if o.Coord.ElDeg > 0 {
			airmass = fmt.Sprintf("%.2f", o.Airmass)
		}
		fmt.Fprintf(&b, "%3d %-20s %12s %12s %6.1f %7s %7.1f\n", i+1, t.Name,
			astro.FormatHMS(p.RAdeg, 2), astro.FormatDMS(p.DecDeg, 1), o.Coord.ElDeg, airmass, o.SunSeparation)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
