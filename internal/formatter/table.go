package formatter

import (
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/harunnryd/jarvis/internal/stats"
)

type TableFormatter struct {
	headerStyle  lipgloss.Style
	cellStyle    lipgloss.Style
	oddRowStyle  lipgloss.Style
	evenRowStyle lipgloss.Style
	borderStyle  lipgloss.Style
	errorStyle   lipgloss.Style
}

func NewTableFormatter() *TableFormatter {
	green := lipgloss.Color("42")
	gray := lipgloss.Color("245")
	lightGray := lipgloss.Color("241")

	return &TableFormatter{
		headerStyle: lipgloss.NewStyle().
			Foreground(green).
			Bold(true).
			Align(lipgloss.Center).
			Padding(0, 1),
		cellStyle: lipgloss.NewStyle().
			Padding(0, 1),
		oddRowStyle: lipgloss.NewStyle().
			Foreground(gray).
			Padding(0, 1),
		evenRowStyle: lipgloss.NewStyle().
			Foreground(lightGray).
			Padding(0, 1),
		borderStyle: lipgloss.NewStyle().
			Foreground(green),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")),
	}
}

func (f *TableFormatter) FormatBatch(r *stats.BatchReport) (string, error) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return f.headerStyle
			}
			return f.cellStyle
		})

	t.Row("Job", r.Job)
	t.Row("Processed", strconv.Itoa(r.Processed))
	t.Row("Filled", strconv.Itoa(r.Filled))
	t.Row("Already done", strconv.Itoa(r.Skipped))
	t.Row("Failed", strconv.Itoa(r.Failed))

	var b strings.Builder
	b.WriteString(t.String())
	for _, err := range r.Errors() {
		b.WriteString("\n")
		b.WriteString(f.errorStyle.Render("  " + truncateString(err.Error(), 100)))
	}
	return b.String(), nil
}

func (f *TableFormatter) FormatDays(days []*stats.DayTotals) (string, error) {
	if len(days) == 0 {
		return "No training days found", nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return f.headerStyle
			case row%2 == 0:
				return f.evenRowStyle
			default:
				return f.oddRowStyle
			}
		}).
		Headers("Date", "Exercises", "Sets", "Volume", "Body parts")

	for _, d := range days {
		t.Row(
			d.Date,
			strconv.Itoa(d.Exercises),
			strconv.Itoa(d.Sets),
			stats.FormatNumber(d.Volume),
			truncateString(strings.Join(d.BodyParts, ", "), 30),
		)
	}
	return t.String(), nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
