package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile modman.toml, modman.lock and the mods directory",
		Long: "Adopt untracked artifacts, prune mods nothing declares and report what still needs\n" +
			"installing. Nothing is downloaded.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := c.app.Sync(cmd.Context(), c.root)
			if err != nil {
				return err
			}
			return c.printer.Reconcile(r)
		},
	}
}

func (c *CLI) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what sync would change, without changing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := c.app.Status(cmd.Context(), c.root)
			if err != nil {
				return err
			}
			return c.printer.Reconcile(r)
		},
	}
}

func (c *CLI) newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>...",
		Aliases: []string{"rm"},
		Short:   "Undeclare mods and prune everything no longer needed",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.app.Remove(cmd.Context(), c.root, args)
			if err != nil {
				return err
			}
			return c.printer.Reconcile(r)
		},
	}
}

func (c *CLI) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List installed mods",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mods, err := c.app.List(cmd.Context(), c.root)
			if err != nil {
				return err
			}
			return c.printer.Mods(mods)
		},
	}
}
