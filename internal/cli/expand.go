package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExpandCmd(a *app) *cobra.Command {
	var headers bool
	cmd := &cobra.Command{
		Use:   "expand <file>",
		Short: "List every offset of each block's pattern with its move command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.readList(cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, b := range l.All() {
				p := b.Pattern()
				fmt.Fprintf(out, "# %d %s\n", i+1, b.Name())
				if p.IsZero() {
					fmt.Fprintln(out, "no offsets")
					continue
				}
				fmt.Fprint(out, p.Table())

				n := 0
				for o := range p.Expand() {
					n++
					c, err := o.Resolve()
					if err != nil {
						fmt.Fprintf(out, "%3d error: %v\n", n, err)
						continue
					}
					fmt.Fprintf(out, "%3d %s\n", n, c)
				}
				if headers {
					if _, err := b.Header().WriteTo(out); err != nil {
						return err
					}
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&headers, "header", false, "also print the block's FITS header cards")
	return cmd
}
