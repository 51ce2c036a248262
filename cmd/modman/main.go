// Package main is the entry point for the modman CLI.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/modman/cmd/modman/commands"
	"go.trai.ch/modman/internal/app"
	"go.trai.ch/modman/internal/core/domain"
	_ "go.trai.ch/modman/internal/wiring"
)

func main() {
	os.Exit(run())
}

func run(opts ...func(*commands.CLI)) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Initialize application components
	components, _, err := graft.ExecuteFor[*app.Components](ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		// Write directly to stderr
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}

	// 2. Interface - CLI
	cli := commands.New(components.App, commands.WithProgress(!components.Settings.NoProgress))
	for _, opt := range opts {
		opt(cli)
	}

	// 3. Execution
	err = cli.Execute(ctx)
	if closeErr := components.App.Close(); closeErr != nil {
		components.Logger.Error(closeErr)
	}
	if err != nil {
		// Partial failures were already printed with the report.
		if errors.Is(err, domain.ErrSomeDownloadsFailed) || errors.Is(err, domain.ErrResolutionFailed) {
			return 1
		}
		components.Logger.Error(err)
		return 1
	}
	return 0
}
