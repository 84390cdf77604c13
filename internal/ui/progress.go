package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"tcm/internal/aggregator"
)

// ProgressBar creates and manages progress bars
type ProgressBar struct {
	bar     *progressbar.ProgressBar
	workers int
}

// NewProgressBar creates a new progress bar on stderr
func NewProgressBar(count, workers int) *ProgressBar {
	return newProgressBar(count, workers, os.Stderr)
}

func newProgressBar(count, workers int, w io.Writer) *ProgressBar {
	bar := progressbar.NewOptions(count,
		progressbar.OptionSetDescription(describe(workers, aggregator.Progress{Total: count})),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(w),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)

	return &ProgressBar{bar: bar, workers: workers}
}

// OnEvent moves the bar when a unit finishes.
func (p *ProgressBar) OnEvent(ev aggregator.Event, progress aggregator.Progress) {
	if ev.Kind == aggregator.EventStarted && ev.Attempt == 1 {
		p.bar.Describe(describe(p.workers, progress))
		return
	}
	if ev.Kind != aggregator.EventFinal {
		return
	}
	_ = p.bar.Set(progress.Completed)
	p.bar.Describe(describe(p.workers, progress))
}

// Finish completes the progress bar
func (p *ProgressBar) Finish() {
	_ = p.bar.Finish()
}

func describe(workers int, p aggregator.Progress) string {
	return color.CyanString("Workers %d ", workers) +
		color.WhiteString("[%d/%d] ", p.Completed, p.Total) +
		color.GreenString("passed: %d", p.Passed) +
		" | " +
		color.RedString("failed: %d", p.Failed) +
		" | " +
		color.YellowString("errors: %d", p.Errored) +
		" | " +
		color.WhiteString("running: %d", p.Running) +
		" | " +
		fmt.Sprintf("%s, %.1f%%", p.Elapsed.Round(time.Second), p.SuccessRate())
}
