package report

import (
	"fmt"
	"strings"
	"time"

	"tcm/internal/domain"
)

// MarkdownFormatter renders an execution report for humans reading it
// outside a terminal.
type MarkdownFormatter struct {
	title string
}

// NewMarkdownFormatter creates a new Markdown formatter
func NewMarkdownFormatter(title string) *MarkdownFormatter {
	return &MarkdownFormatter{title: title}
}

// Format renders s as Markdown.
func (mf *MarkdownFormatter) Format(s *domain.RunSummary) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", mf.title)
	fmt.Fprintf(&b, "- Run: `%s`\n", s.RunID)
	if !s.StartedAt.IsZero() {
		fmt.Fprintf(&b, "- Started: %s\n", s.StartedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "- Workers: %d\n", s.Workers)
	fmt.Fprintf(&b, "- Retry: %s\n", s.RetryPolicy)
	fmt.Fprintf(&b, "- Status: **%s**\n", overallStatus(s))
	if s.Interrupted {
		b.WriteString("- Interrupted before all test cases were dispatched\n")
	}

	b.WriteString("\n## Summary\n\n")
	b.WriteString("| Total | Passed | Failed | Errors | Not started | Attempts | Success rate | Elapsed | Average |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d | %.1f%% | %s | %s |\n",
		s.Total, s.Passed, s.Failed, s.Errored, s.NotStarted, s.Attempts, s.SuccessRate,
		formatDuration(s.Elapsed), formatDuration(s.AverageDuration))

	b.WriteString("\n## Results\n\n")
	b.WriteString("| Test | Status | Attempts | Duration |\n")
	b.WriteString("|---|---|---:|---:|\n")
	for _, r := range s.Results {
		fmt.Fprintf(&b, "| %s | %s | %d | %s |\n", cell(r.TestID), statusText(r.Outcome), r.Attempt, formatDuration(r.Duration))
	}
	for _, id := range s.NotStartedIDs {
		fmt.Fprintf(&b, "| %s | NOT STARTED | 0 | - |\n", cell(id))
	}

	failures := s.Failures()
	if len(failures) > 0 {
		b.WriteString("\n## Failures\n")
		for _, r := range failures {
			fmt.Fprintf(&b, "\n### %s (%s)\n\n", r.TestID, statusText(r.Outcome))
			mf.writeFailure(&b, r.Failure, r.TimedOut)
			if r.Attempt > 1 {
				b.WriteString("\nAttempts:\n\n")
				for _, a := range s.AttemptsFor(r.TestID) {
					fmt.Fprintf(&b, "%d. %s %s\n", a.Attempt, statusText(a.Outcome), a.Failure.String())
				}
			}
		}
	}
	return b.String(), nil
}

func (mf *MarkdownFormatter) writeFailure(b *strings.Builder, f *domain.FailureDetail, timedOut bool) {
	if f == nil {
		return
	}
	if timedOut {
		b.WriteString("Timed out.\n\n")
	}
	if f.Step == 0 {
		fmt.Fprintf(b, "%s\n", f.Reason)
		return
	}
	fmt.Fprintf(b, "Sequence %d, step %d: %s\n", f.SequenceID, f.Step, f.Reason)
	if f.Field == "" {
		return
	}
	fmt.Fprintf(b, "\nExpected %s:\n\n```\n%s\n```\n\nActual %s:\n\n```\n%s\n```\n", f.Field, f.Expected, f.Field, f.Actual)
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
