package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/modman/internal/app"
	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/modman/internal/ui/output"
	"go.trai.ch/modman/internal/ui/prompt"
)

func (c *CLI) newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <[source@]id>...",
		Short: "Resolve, download and declare mods",
		Long: "Resolve the given mods and their required dependencies, download them and declare them\n" +
			"in modman.toml. The source defaults to modrinth.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ignore, _ := cmd.Flags().GetBool("ignore-dependencies")
			res, err := c.app.Add(cmd.Context(), c.root, args, c.installOptions(cmd, ignore))
			return c.finishInstall(res, err)
		},
	}
	cmd.Flags().Bool("ignore-dependencies", false, "Install only the named mods, without their dependencies")
	return cmd
}

func (c *CLI) newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Repair the mods directory to match modman.toml and modman.lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Install(cmd.Context(), c.root, c.installOptions(cmd, false))
			return c.finishInstall(res, err)
		},
	}
}

func (c *CLI) installOptions(cmd *cobra.Command, ignoreDependencies bool) app.InstallOptions {
	in := cmd.InOrStdin()
	confirmer := prompt.NewConfirmer(in, cmd.ErrOrStderr(), c.yes, output.IsTerminal(in))
	spinner := prompt.NewSpinner(cmd.Context(), c.progress && !c.printer.Structured())

	return app.InstallOptions{
		IgnoreDependencies: ignoreDependencies,
		Spinner:            spinner.Run,
		Confirm: func(plan *domain.Resolution) (bool, error) {
			c.printer.Plan(plan)
			return confirmer.Confirm(fmt.Sprintf("Install %d mods?", len(plan.Mods)))
		},
	}
}

// finishInstall prints the install report. Partial failures are still reported in full before
// the error is returned.
func (c *CLI) finishInstall(res *app.InstallReport, err error) error {
	if errors.Is(err, domain.ErrAborted) {
		c.printer.Note("Aborted, nothing was installed.")
		return nil
	}
	if res == nil {
		return err
	}

	if c.printer.Structured() {
		if encErr := c.printer.Encode(res); encErr != nil {
			return errors.Join(err, encErr)
		}
		return err
	}

	if !res.Reconcile.IsClean() {
		c.printer.ReconcileSummary(res.Reconcile)
	}
	if len(res.Resolution.Mods) == 0 && len(res.Resolution.Failures) == 0 {
		c.printer.Plan(res.Resolution)
		c.printer.Done("Nothing to install")
		return err
	}
	c.printer.Downloads(res.Downloads)
	c.printer.Failures(res.Resolution)
	if len(res.Installed) > 0 {
		c.printer.Done(fmt.Sprintf("Installed %d mods", len(res.Installed)))
	}
	return err
}

