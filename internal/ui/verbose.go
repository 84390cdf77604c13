package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"tcm/internal/aggregator"
	"tcm/internal/domain"
)

// VerbosePrinter prints one line per finished attempt.
type VerbosePrinter struct {
	out io.Writer
}

// NewVerbosePrinter creates a printer writing to w.
func NewVerbosePrinter(w io.Writer) *VerbosePrinter {
	return &VerbosePrinter{out: w}
}

// OnEvent implements aggregator.Listener.
func (v *VerbosePrinter) OnEvent(ev aggregator.Event, p aggregator.Progress) {
	if ev.Kind != aggregator.EventAttempt {
		return
	}
	r := ev.Result

	line := fmt.Sprintf("[%d/%d] %s attempt %d %s (%s)", p.Completed, p.Total, r.TestID, r.Attempt, outcomeLabel(r), formatDuration(r.Duration))
	if r.Failure != nil {
		line += ": " + r.Failure.String()
	}
	fmt.Fprintln(v.out, line)
}

func outcomeLabel(r domain.ExecutionResult) string {
	switch r.Outcome {
	case domain.OutcomePass:
		return color.GreenString("PASS")
	case domain.OutcomeFail:
		return color.RedString("FAIL")
	default:
		if r.TimedOut {
			return color.YellowString("TIMEOUT")
		}
		return color.YellowString("ERROR")
	}
}
