package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"tcm/internal/aggregator"
	"tcm/internal/domain"
)

func TestDescribe(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	p := aggregator.Progress{Total: 10, Completed: 4, Running: 2, Passed: 3, Failed: 1, Elapsed: 65 * time.Second}
	assert.Equal(t, "Workers 2 [4/10] passed: 3 | failed: 1 | errors: 0 | running: 2 | 1m5s, 75.0%", describe(2, p))
}

func TestProgressBar_FollowsFinals(t *testing.T) {
	var buf bytes.Buffer
	bar := newProgressBar(2, 1, &buf)

	bar.OnEvent(aggregator.Started("TC_1", 1), aggregator.Progress{Total: 2, Running: 1})
	bar.OnEvent(aggregator.Finished(domain.ExecutionResult{TestID: "TC_1", Outcome: domain.OutcomePass}),
		aggregator.Progress{Total: 2, Completed: 1, Passed: 1})
	assert.False(t, bar.bar.IsFinished())

	bar.OnEvent(aggregator.Finished(domain.ExecutionResult{TestID: "TC_2", Outcome: domain.OutcomeFail}),
		aggregator.Progress{Total: 2, Completed: 2, Passed: 1, Failed: 1})
	bar.Finish()
	assert.True(t, bar.bar.IsFinished())
	assert.NotEmpty(t, buf.String())
}
