package report

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/modman/internal/ui/output"
	"go.trai.ch/modman/internal/ui/style"
)

func (p *Printer) table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.border).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header.PaddingRight(2)
			}
			return p.cell
		})
	for _, r := range rows {
		t.Row(r...)
	}
	return t.String()
}

// Plan prints the mods about to be downloaded and their total size. Structured printers skip
// it because the plan is part of the final report.
func (p *Printer) Plan(res *domain.Resolution) {
	if p.Structured() {
		return
	}
	for _, id := range res.AlreadyInstalled {
		p.printf("%s\n", p.mark(p.muted, style.Check, id+" is already installed"))
	}
	if len(res.Mods) == 0 {
		return
	}

	rows := make([][]string, 0, len(res.Mods))
	for _, m := range res.Mods {
		rows = append(rows, []string{m.Name, m.ID, m.Version, m.FileName, output.HumanBytes(m.Size)})
	}
	p.printf("%s\n", p.table([]string{"NAME", "ID", "VERSION", "FILE", "SIZE"}, rows))
	p.printf("%d mods, total download size %s\n", len(res.Mods), output.HumanBytes(res.TotalSize()))
}

// Failures prints the roots that could not be resolved.
func (p *Printer) Failures(res *domain.Resolution) {
	if p.Structured() || len(res.Failures) == 0 {
		return
	}
	lines := make([]string, 0, len(res.Failures))
	for _, f := range res.Failures {
		text := fmt.Sprintf("%s: %s", f.ID, f.Class)
		if f.Parent != "" {
			text += p.muted.Render(fmt.Sprintf(" (required by %s, root %s)", f.Parent, f.Root))
		}
		lines = append(lines, p.mark(p.failure, style.Cross, text))
	}
	p.section("Could not resolve", lines)
}

// Downloads prints one line per download outcome.
func (p *Printer) Downloads(outcomes []domain.DownloadOutcome) {
	if p.Structured() || len(outcomes) == 0 {
		return
	}
	lines := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		name := o.Item.DisplayName
		if name == "" {
			name = o.Item.ModID
		}
		if o.Verified() {
			lines = append(lines, p.mark(p.success, style.Check, name))
			continue
		}
		detail := o.Status.String()
		if o.Err != nil {
			detail = o.Err.Error()
		}
		lines = append(lines, p.mark(p.failure, style.Cross, name+" "+p.muted.Render(detail)))
	}
	p.section("Downloads", lines)
}

// Mods prints lockfile entries as a table, or encodes them.
func (p *Printer) Mods(mods []domain.ResolvedMod) error {
	if p.Structured() {
		return p.Encode(mods)
	}
	if len(mods) == 0 {
		p.printf("%s\n", p.muted.Render("No mods installed."))
		return nil
	}
	rows := make([][]string, 0, len(mods))
	for _, m := range mods {
		rows = append(rows, []string{m.Name, m.ID, m.Version, m.Source.String(), m.FileName, output.HumanBytes(m.Size)})
	}
	p.printf("%s\n", p.table([]string{"NAME", "ID", "VERSION", "SOURCE", "FILE", "SIZE"}, rows))
	return nil
}
