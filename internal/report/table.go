package report

import (
	"bytes"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"tcm/internal/domain"
)

// TableFormatter renders the run as an ASCII table.
type TableFormatter struct {
	title   string
	colored bool
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(title string, colored bool) *TableFormatter {
	return &TableFormatter{title: title, colored: colored}
}

// Format formats the summary as an ASCII table
func (tf *TableFormatter) Format(s *domain.RunSummary) (string, error) {
	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle(tf.title)

	t.AppendHeader(table.Row{"Test", "Status", "Attempts", "Duration", "Detail"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Attempts", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Detail", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, r := range s.Results {
		status := statusText(r.Outcome)
		if r.TimedOut {
			status += " (timeout)"
		}
		t.AppendRow(table.Row{r.TestID, status, r.Attempt, formatDuration(r.Duration), r.Failure.String()})
	}
	for _, id := range s.NotStartedIDs {
		t.AppendRow(table.Row{id, "NOT STARTED", 0, "-", ""})
	}

	switch {
	case !tf.colored:
		t.SetStyle(table.StyleLight)
	case s.Failed > 0 || s.Errored > 0:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	case s.NotStarted > 0:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("TOTAL %d", s.Total),
		overallStatus(s),
		s.Attempts,
		formatDuration(s.Elapsed),
		fmt.Sprintf("passed %d, failed %d, errors %d, not started %d, success %.1f%%",
			s.Passed, s.Failed, s.Errored, s.NotStarted, s.SuccessRate),
	})

	t.Render()
	return buf.String(), nil
}
