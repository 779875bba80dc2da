package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/litescript/ls-odl/internal/catalog"
	"github.com/litescript/ls-odl/internal/codec"
)

func (a *app) openCatalog(cmd *cobra.Command) (*catalog.Store, error) {
	a.log.Debug("Opening catalog %s", a.cfg.CatalogPath)
	return catalog.Open(cmd.Context(), a.cfg.CatalogPath, a.dec)
}

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Store and retrieve block lists in the local catalog",
	}
	cmd.AddCommand(
		newCatalogSaveCmd(a),
		newCatalogLoadCmd(a),
		newCatalogListCmd(a),
		newCatalogDeleteCmd(a),
		newCatalogFindCmd(a),
	)
	return cmd
}

func newCatalogSaveCmd(a *app) *cobra.Command {
	var name string
	var force bool
	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "Save a block list under its name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.readList(cmd, args[0])
			if err != nil {
				return err
			}
			if name != "" {
				l.Name = name
			}
			if !force {
				if _, err := l.FinalizeAll(cmd.Context(), a.finalizeOptions()); err != nil {
					return fmt.Errorf("not saving %s: %w (use --force to save anyway)", l.Name, err)
				}
			}

			store, err := a.openCatalog(cmd)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Save(cmd.Context(), l); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d blocks)\n", l.Name, l.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "catalog name (default: the list's name)")
	cmd.Flags().BoolVar(&force, "force", false, "save even if some blocks are invalid")
	return cmd
}

func newCatalogLoadCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "load <name>",
		Short: "Print a stored list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := codec.ParseFormat(format)
			if err != nil {
				return err
			}
			store, err := a.openCatalog(cmd)
			if err != nil {
				return err
			}
			defer store.Close()
			l, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return codec.Encode(cmd.OutOrStdout(), l, f)
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format (yaml or json)")
	return cmd
}

func newCatalogListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored block lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openCatalog(cmd)
			if err != nil {
				return err
			}
			defer store.Close()
			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%-30s %4d blocks  %s\n", e.Name, e.Blocks, e.UpdatedAt.Local().Format(time.DateTime))
			}
			return nil
		},
	}
}

func newCatalogDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a stored list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openCatalog(cmd)
			if err != nil {
				return err
			}
			defer store.Close()
			return store.Delete(cmd.Context(), args[0])
		},
	}
}

func newCatalogFindCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "find <block-id>",
		Short: "Show which stored lists contain a block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("block id: %w", err)
			}
			store, err := a.openCatalog(cmd)
			if err != nil {
				return err
			}
			defer store.Close()
			locs, err := store.FindBlock(cmd.Context(), id)
			if err != nil {
				return err
			}
			for _, loc := range locs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s #%d\n", loc.List, loc.Position+1)
			}
			return nil
		},
	}
}
