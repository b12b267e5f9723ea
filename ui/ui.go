// Package ui renders conversion reports for the terminal
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/heshanpadmasiri/cy2pw/diagnostics"
)

var (
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	partialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	skipStyle    = lipgloss.NewStyle().Faint(true)
	detailStyle  = lipgloss.NewStyle().Faint(true)
)

var labels = map[diagnostics.Status]string{
	diagnostics.StatusSuccess: okStyle.Render("ok  "),
	diagnostics.StatusPartial: partialStyle.Render("part"),
	diagnostics.StatusFailed:  failedStyle.Render("fail"),
	diagnostics.StatusSkipped: skipStyle.Render("skip"),
}

// Label returns the styled four-letter label of a status.
func Label(status diagnostics.Status) string {
	if l, ok := labels[status]; ok {
		return l
	}
	return string(status)
}

// ReportLine prints one file result followed by its warnings.
func ReportLine(w io.Writer, r diagnostics.FileReport) {
	line := Label(r.Status) + "  " + r.Path
	if r.Target != "" && r.Target != r.Path {
		line += " -> " + r.Target
	}
	fmt.Fprintln(w, line)
	if r.Err != nil {
		fmt.Fprintln(w, detailStyle.Render("      "+r.Err.Error()))
	}
	for _, warning := range r.Warnings {
		fmt.Fprintln(w, detailStyle.Render("      "+warning.String()))
	}
}

// StatusLine prints the recorded state of one file.
func StatusLine(w io.Writer, path string, status diagnostics.Status, warnings int) {
	line := Label(status) + "  " + path
	if warnings > 0 {
		line += detailStyle.Render(fmt.Sprintf(" (%d warnings)", warnings))
	}
	fmt.Fprintln(w, line)
}

// SummaryLine prints the totals of a run.
func SummaryLine(w io.Writer, reports []diagnostics.FileReport) {
	counts := map[diagnostics.Status]int{}
	for _, r := range reports {
		counts[r.Status]++
	}
	fmt.Fprintf(w, "converted %d files: %d ok, %d partial, %d failed, %d skipped\n",
		len(reports),
		counts[diagnostics.StatusSuccess],
		counts[diagnostics.StatusPartial],
		counts[diagnostics.StatusFailed],
		counts[diagnostics.StatusSkipped])
}
