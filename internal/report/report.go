// Package report renders a frozen run summary. Every format reads the same
// summary; none of them aggregates on its own.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tcm/internal/domain"
)

// Formatter renders a run summary.
type Formatter interface {
	Format(s *domain.RunSummary) (string, error)
}

// WriteFile renders s with f and writes it to path, creating parent
// directories as needed.
func WriteFile(path string, f Formatter, s *domain.RunSummary) error {
	content, err := f.Format(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// statusText is the upper-case label of an outcome.
func statusText(o domain.Outcome) string {
	switch o {
	case domain.OutcomePass:
		return "PASS"
	case domain.OutcomeFail:
		return "FAIL"
	case domain.OutcomeError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// overallStatus summarises the run in one word.
func overallStatus(s *domain.RunSummary) string {
	switch {
	case s.Failed > 0 || s.Errored > 0:
		return "FAIL"
	case s.NotStarted > 0:
		return "INCOMPLETE"
	default:
		return "PASS"
	}
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
