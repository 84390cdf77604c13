package report

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tcm/internal/domain"
)

func sampleSummary() *domain.RunSummary {
	mismatch := &domain.FailureDetail{SequenceID: 1, Step: 1, Field: "output", Expected: "Success", Actual: "Failure", Reason: "output mismatch"}
	return &domain.RunSummary{
		RunID:         "run-1",
		Workers:       2,
		RetryPolicy:   "up to 2 attempts",
		StartedAt:     time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
		Total:         4,
		Completed:     3,
		Passed:        1,
		Failed:        1,
		Errored:       1,
		NotStarted:    1,
		NotStartedIDs: []string{"TC_4"},
		Attempts:      5,
		Elapsed:       3 * time.Second,
		SuccessRate:   33.3,
		Results: []domain.ExecutionResult{
			{TestID: "TC_1", Outcome: domain.OutcomePass, Attempt: 1, Final: true, Duration: 800 * time.Millisecond},
			{TestID: "TC_2", Outcome: domain.OutcomeFail, Attempt: 2, Final: true, Duration: 2 * time.Second, Failure: mismatch},
			{TestID: "TC_3", Outcome: domain.OutcomeError, Attempt: 2, Final: true, TimedOut: true, Failure: &domain.FailureDetail{Reason: "timed out after 1s"}},
		},
		AttemptLog: []domain.ExecutionResult{
			{TestID: "TC_1", Outcome: domain.OutcomePass, Attempt: 1},
			{TestID: "TC_2", Outcome: domain.OutcomeError, Attempt: 1, Failure: &domain.FailureDetail{Reason: "launch failed: boom"}},
			{TestID: "TC_3", Outcome: domain.OutcomeError, Attempt: 1, TimedOut: true, Failure: &domain.FailureDetail{Reason: "timed out after 1s"}},
			{TestID: "TC_2", Outcome: domain.OutcomeFail, Attempt: 2, Failure: mismatch},
			{TestID: "TC_3", Outcome: domain.OutcomeError, Attempt: 2, TimedOut: true, Failure: &domain.FailureDetail{Reason: "timed out after 1s"}},
		},
	}
}

type xmlSuites struct {
	Suites []struct {
		Name      string `xml:"name,attr"`
		Testcases []struct {
			Name    string `xml:"name,attr"`
			Failure *struct {
				Message string `xml:"message,attr"`
				Type    string `xml:"type,attr"`
				Data    string `xml:",chardata"`
			} `xml:"failure"`
			Error *struct {
				Message string `xml:"message,attr"`
				Type    string `xml:"type,attr"`
			} `xml:"error"`
			Skipped *struct {
				Message string `xml:"message,attr"`
			} `xml:"skipped"`
		} `xml:"testcase"`
	} `xml:"testsuite"`
}

func TestJUnitFormatter(t *testing.T) {
	out, err := NewJUnitFormatter("es9").Format(sampleSummary())
	require.NoError(t, err)

	var parsed xmlSuites
	require.NoError(t, xml.Unmarshal([]byte(out), &parsed))
	require.Len(t, parsed.Suites, 1)
	suite := parsed.Suites[0]
	assert.Equal(t, "es9", suite.Name)
	require.Len(t, suite.Testcases, 4)

	assert.Nil(t, suite.Testcases[0].Failure)
	assert.Nil(t, suite.Testcases[0].Error)

	failure := suite.Testcases[1].Failure
	require.NotNil(t, failure)
	assert.Equal(t, "output", failure.Type)
	assert.Contains(t, failure.Message, `expected "Success", found "Failure"`)
	assert.Contains(t, failure.Data, "attempt 1: error launch failed: boom")

	require.NotNil(t, suite.Testcases[2].Error)
	assert.Equal(t, "timeout", suite.Testcases[2].Error.Type)

	assert.Equal(t, "TC_4", suite.Testcases[3].Name)
	require.NotNil(t, suite.Testcases[3].Skipped)
	assert.Equal(t, "not started", suite.Testcases[3].Skipped.Message)
}

func TestTableFormatter(t *testing.T) {
	out, err := NewTableFormatter("Run", false).Format(sampleSummary())
	require.NoError(t, err)

	upper := strings.ToUpper(out)
	for _, want := range []string{"TC_1", "PASS", "TC_2", "FAIL", "ERROR (TIMEOUT)", "NOT STARTED", "TOTAL 4", "NOT STARTED 1", "SUCCESS 33.3%"} {
		assert.Contains(t, upper, want)
	}
}

func TestMarkdownFormatter(t *testing.T) {
	out, err := NewMarkdownFormatter("Execution report").Format(sampleSummary())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "# Execution report\n"))
	assert.Contains(t, out, "- Status: **FAIL**")
	assert.Contains(t, out, "| 4 | 1 | 1 | 1 | 1 | 5 | 33.3% | 3s |")
	assert.Contains(t, out, "### TC_2 (FAIL)")
	assert.Contains(t, out, "Sequence 1, step 1: output mismatch")
	assert.Contains(t, out, "Expected output:\n\n```\nSuccess\n```")
	assert.Contains(t, out, "Timed out.")
	assert.Contains(t, out, "| TC_4 | NOT STARTED | 0 | - |")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "junit.xml")
	require.NoError(t, WriteFile(path, NewJUnitFormatter(""), sampleSummary()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<testsuites`)
}

func TestOverallStatus(t *testing.T) {
	assert.Equal(t, "PASS", overallStatus(&domain.RunSummary{Total: 1, Passed: 1}))
	assert.Equal(t, "INCOMPLETE", overallStatus(&domain.RunSummary{Total: 2, Passed: 1, NotStarted: 1}))
	assert.Equal(t, "FAIL", overallStatus(&domain.RunSummary{Total: 1, Errored: 1}))
}
