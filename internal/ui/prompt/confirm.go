package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"go.trai.ch/zerr"
)

// Confirmer asks yes/no questions on a terminal.
type Confirmer struct {
	in  io.Reader
	out io.Writer
	// assume answers every question with yes without asking.
	assume bool
}

// NewConfirmer returns a Confirmer reading answers from in. When assumeYes is set, or in is not
// interactive, every question is answered with yes.
func NewConfirmer(in io.Reader, out io.Writer, assumeYes, interactive bool) *Confirmer {
	return &Confirmer{in: in, out: out, assume: assumeYes || !interactive}
}

// Confirm prints question with a [Y/n] hint and reads one line. An empty answer means yes.
func (c *Confirmer) Confirm(question string) (bool, error) {
	if c.assume {
		return true, nil
	}

	if _, err := fmt.Fprintf(c.out, "%s [Y/n]: ", question); err != nil {
		return false, zerr.Wrap(err, "failed to write prompt")
	}

	scanner := bufio.NewScanner(c.in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return false, zerr.Wrap(err, "failed to read answer")
		}
		// EOF without an answer declines.
		return false, nil
	}

	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "", "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
