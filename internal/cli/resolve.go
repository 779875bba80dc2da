package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-odl/internal/astro"
	"github.com/litescript/ls-odl/internal/target"
	"github.com/litescript/ls-odl/internal/tracing"
)

// startTracing installs the configured tracer provider and returns its
// shutdown.
func (a *app) startTracing(cmd *cobra.Command) (func(), error) {
	ctx := cmd.Context()
	shutdown, err := tracing.Init(ctx, tracing.Config{
		Exporter:    a.cfg.Tracing.Exporter,
		Endpoint:    a.cfg.Tracing.Endpoint,
		Insecure:    a.cfg.Tracing.Insecure,
		SampleRatio: a.cfg.Tracing.SampleRatio,
		Writer:      cmd.ErrOrStderr(),
	}, a.log)
	if err != nil {
		return nil, err
	}
	return func() { tracing.Shutdown(context.WithoutCancel(ctx), shutdown, a.log) }, nil
}

func newResolveCmd(a *app) *cobra.Command {
	var asStarlist bool
	cmd := &cobra.Command{
		Use:   "resolve <name>...",
		Short: "Look up target coordinates by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stop, err := a.startTracing(cmd)
			if err != nil {
				return err
			}
			defer stop()

			r := target.NewSesameResolver(a.cfg.Resolver.URL)
			out := cmd.OutOrStdout()
			failed := 0
			for _, name := range args {
				ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Resolver.Timeout)
				t, err := target.FromName(ctx, r, name)
				cancel()
				if err != nil {
					failed++
					a.log.Error("%v", err)
					continue
				}
				if asStarlist {
					line, err := t.StarlistLine()
					if err != nil {
						return err
					}
					fmt.Fprintln(out, line)
					continue
				}
				p := t.Position
				fmt.Fprintf(out, "%-20s %s %s %s", t.Name, astro.FormatHMS(p.RAdeg, 2), astro.FormatDMS(p.DecDeg, 1), p.Frame)
				if t.HasSpaceMotion() {
					fmt.Fprintf(out, " pm=%.2f,%.2f mas/yr", t.PM.PMRA, t.PM.PMDec)
				}
				fmt.Fprintln(out)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d names not resolved", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asStarlist, "starlist", false, "print results as starlist records")
	return cmd
}
