// Package report renders command results as styled text or as structured JSON and YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/modman/internal/ui/output"
	"go.trai.ch/modman/internal/ui/style"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Format selects how results are printed.
type Format string

const (
	// FormatText prints styled, human readable text.
	FormatText Format = "text"
	// FormatJSON prints indented JSON.
	FormatJSON Format = "json"
	// FormatYAML prints YAML.
	FormatYAML Format = "yaml"
)

// ParseFormat parses an --output value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", domain.Mark(domain.ErrInvalidOutputFormat, "format", s)
	}
}

// Printer writes command results to w.
type Printer struct {
	w      io.Writer
	format Format

	header  lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	notice  lipgloss.Style
	cell    lipgloss.Style
	border  lipgloss.Style
}

// NewPrinter creates a Printer for format. Text output honours NO_COLOR.
func NewPrinter(w io.Writer, format Format) *Printer {
	r := lipgloss.NewRenderer(w, termenv.WithProfile(output.ColorProfile()))
	return &Printer{
		w:       w,
		format:  format,
		header:  r.NewStyle().Bold(true).Foreground(style.Iris),
		muted:   r.NewStyle().Foreground(style.Slate),
		success: r.NewStyle().Foreground(style.Green),
		failure: r.NewStyle().Foreground(style.Red),
		notice:  r.NewStyle().Foreground(style.Yellow),
		cell:    r.NewStyle().PaddingRight(2),
		border:  r.NewStyle().Foreground(style.Slate),
	}
}

// Structured reports whether the printer emits JSON or YAML.
func (p *Printer) Structured() bool {
	return p.format != FormatText
}

// Encode writes v in the structured format. Text printers fall back to YAML.
func (p *Printer) Encode(v any) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return zerr.Wrap(err, "failed to encode json")
		}
	default:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return zerr.Wrap(err, "failed to encode yaml")
		}
		if err := enc.Close(); err != nil {
			return zerr.Wrap(err, "failed to encode yaml")
		}
	}
	return nil
}

func (p *Printer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) section(title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	p.printf("%s\n", p.header.Render(title))
	for _, line := range lines {
		p.printf("  %s\n", line)
	}
}

func (p *Printer) mark(s lipgloss.Style, icon, text string) string {
	return s.Render(icon) + " " + text
}

func modLabel(m domain.ResolvedMod) string {
	if m.Name == "" || m.Name == m.ID {
		return m.ID
	}
	return fmt.Sprintf("%s (%s)", m.Name, m.ID)
}

// Reconcile prints a reconcile report. In text mode a clean report prints a single line.
func (p *Printer) Reconcile(r *domain.ReconcileReport) error {
	if p.Structured() {
		return p.Encode(r)
	}
	p.ReconcileSummary(r)
	if r.HasWork() {
		p.printf("%s\n", p.muted.Render("Run 'modman install' to repair."))
	}
	return nil
}

// ReconcileSummary prints the text form of r without the repair hint.
func (p *Printer) ReconcileSummary(r *domain.ReconcileReport) {
	if r.IsClean() {
		p.printf("%s\n", p.mark(p.success, style.Check, "Everything is in sync"))
		return
	}

	var lines []string
	for _, m := range r.Adopted {
		lines = append(lines, p.mark(p.success, style.Plus, modLabel(m)+" "+p.muted.Render(m.FileName)))
	}
	p.section("Adopted", lines)

	lines = lines[:0]
	for _, m := range r.Localized {
		lines = append(lines, p.mark(p.notice, style.Plus, m.FileName))
	}
	p.section("Recorded as local", lines)

	lines = lines[:0]
	for _, m := range r.ReinstallBadChecksum {
		lines = append(lines, p.mark(p.failure, style.Warning, modLabel(m)+" "+p.muted.Render(m.FileName)))
	}
	p.section("Checksum mismatch, needs reinstall", lines)

	lines = lines[:0]
	for _, m := range r.NewMods {
		lines = append(lines, p.mark(p.notice, style.Plus, m.ID))
	}
	p.section("Not installed", lines)

	lines = lines[:0]
	for _, d := range r.MissingDependencies {
		lines = append(lines, p.mark(p.notice, style.Plus, d.TargetID+" "+p.muted.Render(d.Source.String())))
	}
	p.section("Missing dependencies", lines)

	lines = lines[:0]
	for _, m := range r.Pruned {
		lines = append(lines, p.mark(p.muted, style.Minus, modLabel(m)+" "+p.muted.Render(m.FileName)))
	}
	p.section("Pruned", lines)

	lines = lines[:0]
	for _, name := range r.Unidentified {
		lines = append(lines, p.mark(p.failure, style.Cross, name))
	}
	p.section("Unidentified", lines)
}

// Done prints a success line. Structured printers skip it.
func (p *Printer) Done(msg string) {
	if p.Structured() {
		return
	}
	p.printf("%s\n", p.mark(p.success, style.Check, msg))
}

// Note prints a muted informational line. Structured printers skip it.
func (p *Printer) Note(msg string) {
	if p.Structured() {
		return
	}
	p.printf("%s\n", p.muted.Render(msg))
}

// Problem prints err as a failure line. Structured printers skip it.
func (p *Printer) Problem(err error) {
	if p.Structured() {
		return
	}
	p.printf("%s\n", p.mark(p.failure, style.Cross, err.Error()))
}
