package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/modman/internal/app"
	"go.trai.ch/modman/internal/core/domain"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync whenever modman.toml or the mods directory changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			window, _ := cmd.Flags().GetDuration("debounce")
			return c.app.Watch(cmd.Context(), c.root, app.WatchOptions{
				Window: window,
				OnSync: func(r *domain.ReconcileReport, err error) {
					if err != nil {
						c.printer.Problem(err)
						return
					}
					if printErr := c.printer.Reconcile(r); printErr != nil {
						c.printer.Problem(printErr)
					}
				},
			})
		},
	}
	cmd.Flags().Duration("debounce", 0, "Wait this long for changes to settle before syncing (default 200ms)")
	return cmd
}
