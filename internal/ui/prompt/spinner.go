// Package prompt provides the interactive pieces of the CLI: a spinner for slow work and a
// yes/no confirmation.
package prompt

import (
	"context"
	"os"

	"github.com/charmbracelet/huh/spinner"
	"go.trai.ch/modman/internal/ui/output"
	"go.trai.ch/zerr"
)

// Spinner runs actions behind a terminal spinner.
type Spinner struct {
	ctx     context.Context
	enabled bool
}

// NewSpinner returns a Spinner that animates only when stderr is a terminal and enabled is set.
func NewSpinner(ctx context.Context, enabled bool) *Spinner {
	return &Spinner{ctx: ctx, enabled: enabled && output.IsTerminal(os.Stderr)}
}

// Run executes action, showing title while it runs.
func (s *Spinner) Run(title string, action func() error) error {
	if !s.enabled {
		return action()
	}

	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		err = action()
	}()

	spinErr := spinner.New().
		Title(title).
		Context(s.ctx).
		Action(func() { <-done }).
		Run()
	<-done

	if err == nil && spinErr != nil {
		return zerr.Wrap(spinErr, "spinner failed")
	}
	return err
}
