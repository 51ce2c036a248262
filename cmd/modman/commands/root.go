// Package commands implements the CLI commands for modman.
package commands

import (
	"context"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.trai.ch/modman/internal/app"
	"go.trai.ch/modman/internal/build"
	"go.trai.ch/modman/internal/ui/report"
	"go.trai.ch/zerr"
)

// CLI represents the command line interface for modman.
type CLI struct {
	app      *app.App
	rootCmd  *cobra.Command
	progress bool

	// Set by the root command before any subcommand runs.
	root    string
	printer *report.Printer
	yes     bool
}

// Option configures a CLI.
type Option func(*CLI)

// WithProgress enables the spinner on interactive terminals.
func WithProgress(enabled bool) Option {
	return func(c *CLI) {
		c.progress = enabled
	}
}

// New creates a new CLI instance with the given app.
func New(a *app.App, opts ...Option) *CLI {
	rootCmd := &cobra.Command{
		Use:           "modman",
		Short:         "A package manager for game mods",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.StringP("dir", "C", ".", "Project directory containing modman.toml")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.String("log-format", "pretty", "Log format: pretty or json")
	flags.StringP("output", "o", string(report.FormatText), "Output format: text, json or yaml")
	flags.BoolP("yes", "y", false, "Skip confirmation prompts")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file on exit")

	c := &CLI{
		app:      a,
		rootCmd:  rootCmd,
		progress: true,
	}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd.PersistentPreRunE = c.setup

	rootCmd.AddCommand(c.newInitCmd())
	rootCmd.AddCommand(c.newAddCmd())
	rootCmd.AddCommand(c.newInstallCmd())
	rootCmd.AddCommand(c.newSyncCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newRemoveCmd())
	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	dir, _ := flags.GetString("dir")
	verbose, _ := flags.GetBool("verbose")
	logFormat, _ := flags.GetString("log-format")
	outputFormat, _ := flags.GetString("output")
	metricsFile, _ := flags.GetString("metrics-file")
	c.yes, _ = flags.GetBool("yes")

	format, err := report.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	c.printer = report.NewPrinter(cmd.OutOrStdout(), format)

	root, err := filepath.Abs(dir)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to resolve project directory"), "dir", dir)
	}
	c.root = root

	c.app.Configure(app.GlobalOptions{
		Verbose:     verbose,
		LogFormat:   logFormat,
		MetricsFile: metricsFile,
	})
	return nil
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output and prompts. Used for testing.
func (c *CLI) SetOutput(out, errOut io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(errOut)
}

// SetInput sets the reader prompts answer from. Used for testing.
func (c *CLI) SetInput(in io.Reader) {
	c.rootCmd.SetIn(in)
}
