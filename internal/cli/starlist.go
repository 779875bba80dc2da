package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-odl/internal/target"
)

func newStarlistCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "starlist <file>",
		Short: "Check and normalise a starlist, or extract one from a block list",
		Long: "starlist reads a starlist and prints it back in canonical form after checking every target.\n" +
			"Given a .yaml, .yml or .json block list it prints the starlist of the list's targets instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			var targets []*target.Target
			switch strings.ToLower(filepath.Ext(path)) {
			case ".yaml", ".yml", ".json":
				l, err := a.readList(cmd, path)
				if err != nil {
					return err
				}
				seen := map[string]bool{}
				for _, b := range l.All() {
					t := b.Target()
					if t == nil || t.Position == nil || seen[t.Name] {
						continue
					}
					seen[t.Name] = true
					targets = append(targets, t)
				}
			default:
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				if targets, err = target.ReadStarlist(f); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}

			bad := 0
			for _, t := range targets {
				if err := t.Validate(); err != nil {
					bad++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", t.Name, err)
				}
			}
			if err := target.WriteStarlist(cmd.OutOrStdout(), targets); err != nil {
				return err
			}
			if bad > 0 {
				return fmt.Errorf("%d of %d targets invalid", bad, len(targets))
			}
			return nil
		},
	}
}
