package cli

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/litescript/ls-odl/internal/ui"
)

func newBrowseCmd(a *app) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "browse <file>",
		Short: "Browse a block list interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(cmd.OutOrStdout()) {
				return errors.New("browse needs a terminal; use summary instead")
			}
			when, err := parseAt(at)
			if err != nil {
				return err
			}
			l, err := a.readList(cmd, args[0])
			if err != nil {
				return err
			}

			p := tea.NewProgram(ui.NewBrowser(l, a.finalizeOptions(), when),
				tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "now", "execution time for plans (RFC 3339, or now+/-duration)")
	return cmd
}
