package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tcm/internal/aggregator"
	"tcm/internal/domain"
)

func TestCollector(t *testing.T) {
	c := NewCollector("run-1")
	progress := aggregator.Progress{Total: 2, Completed: 1, Passed: 1}

	c.OnEvent(aggregator.AttemptDone(domain.ExecutionResult{TestID: "a", Outcome: domain.OutcomeFail, Duration: time.Second}), progress)
	c.OnEvent(aggregator.AttemptDone(domain.ExecutionResult{TestID: "a", Outcome: domain.OutcomeError, TimedOut: true}), progress)
	c.OnEvent(aggregator.AttemptDone(domain.ExecutionResult{TestID: "a", Outcome: domain.OutcomePass}), progress)
	c.OnEvent(aggregator.Finished(domain.ExecutionResult{TestID: "a", Outcome: domain.OutcomePass}), progress)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.unitsTotal.WithLabelValues("pass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.attemptsTotal.WithLabelValues("fail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.timeoutsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.unitsSelected))
	assert.Equal(t, 100.0, testutil.ToFloat64(c.successRate))
	assert.Equal(t, 3, testutil.CollectAndCount(c.attemptsTotal))
}

func TestCollector_WriteFile(t *testing.T) {
	c := NewCollector("run-1")
	c.OnEvent(aggregator.Finished(domain.ExecutionResult{TestID: "a", Outcome: domain.OutcomeFail}), aggregator.Progress{Total: 1, Completed: 1, Failed: 1})

	path := filepath.Join(t.TempDir(), "out", "tcm.prom")
	require.NoError(t, c.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `tcm_units_total{outcome="fail",run_id="run-1"} 1`), text)
	assert.Contains(t, text, "# HELP tcm_units_selected")
}
