package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-odl/internal/block"
)

type planJSON struct {
	Index int          `json:"index"`
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Steps []block.Step `json:"steps,omitempty"`
	Error string       `json:"error,omitempty"`
}

func newPlanCmd(a *app) *cobra.Command {
	var (
		at     string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "plan <file>",
		Short: "Expand valid blocks into align, configure, move and expose steps",
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
			l, _ = l.FinalizeAll(cmd.Context(), a.finalizeOptions())

			out := cmd.OutOrStdout()
			var plans []planJSON
			failed := 0
			for i, b := range l.All() {
				p := planJSON{Index: i, ID: b.ID().String(), Name: b.Name()}
				steps, err := b.Plan(when)
				if err != nil {
					failed++
					p.Error = err.Error()
				} else {
					p.Steps = steps
				}
				plans = append(plans, p)

				if asJSON {
					continue
				}
				fmt.Fprintf(out, "# %d %s\n", i+1, b.Name())
				if err != nil {
					fmt.Fprintf(out, "error: %v\n\n", err)
					continue
				}
				fmt.Fprint(out, block.FormatPlan(steps))
				fmt.Fprintln(out)
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(plans); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d blocks could not be planned", failed, l.Len())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "now", "execution time used to propagate targets (RFC 3339, or now+/-duration)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print steps as JSON")
	return cmd
}
