package ui

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tcm/internal/aggregator"
	"tcm/internal/config"
	"tcm/internal/domain"
)

func newTestFormatter(t *testing.T) (*Formatter, *bytes.Buffer) {
	t.Helper()
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	cfg := config.New()
	cfg.ProjectPath = "/project"
	var buf bytes.Buffer
	return NewFormatterTo(cfg, &buf), &buf
}

func validationResults() []domain.FileValidation {
	return []domain.FileValidation{
		{Path: "/project/testcases/a.yaml", Status: domain.Valid{}, TestCase: &domain.TestCase{ID: "TC_A"}},
		{Path: "/project/testcases/b.yaml", Status: domain.ParseError{Message: "yaml: line 3: did not find expected key"}},
		{Path: "/project/testcases/c.yaml", Status: domain.ValidationError{Errors: []domain.ValidationErrorDetail{
			{Path: "/test_sequences", Constraint: domain.ConstraintMissingProperty, ExpectedConstraint: "required property", FoundValue: domain.MissingValue},
		}}},
	}
}

func TestFormatter_PrintValidation(t *testing.T) {
	f, buf := newTestFormatter(t)

	invalid := f.PrintValidation(validationResults())
	assert.Equal(t, 2, invalid)

	out := buf.String()
	assert.Contains(t, out, "✓ testcases/a.yaml")
	assert.Contains(t, out, "✗ testcases/b.yaml: parse error")
	assert.Contains(t, out, "/test_sequences  missing_property")
	assert.Contains(t, out, "expected required property, found <missing>")
	assert.Contains(t, out, "✗ 2 of 3 document(s) are invalid")
}

func TestFormatter_PrintValidationJSON(t *testing.T) {
	f, buf := newTestFormatter(t)
	require.NoError(t, f.PrintValidationJSON(validationResults()))

	var records []validationRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 3)
	assert.Equal(t, "valid", records[0].Status)
	assert.Equal(t, "TC_A", records[0].ID)
	assert.Equal(t, "parse_error", records[1].Status)
	assert.Equal(t, "validation_error", records[2].Status)
	assert.Equal(t, domain.ConstraintMissingProperty, records[2].Errors[0].Constraint)
}

func TestFormatter_PrintList(t *testing.T) {
	f, buf := newTestFormatter(t)
	cases := []*domain.TestCase{
		{ID: "TC_1", Description: "first", Tags: []string{"smoke"}, Path: "/project/testcases/1.yaml", TestSequences: []domain.TestSequence{
			{ID: 1, Name: "seq", Steps: []domain.Step{{Step: 1, Description: "send"}, {Step: 2, Description: "insert", Manual: true}}},
		}},
		{ID: "TC_2", Description: "second"},
	}

	f.PrintList(cases, true)
	out := buf.String()
	assert.Contains(t, out, "Found 2 test case(s)")
	assert.Contains(t, out, "├── TC_1 [smoke]")
	assert.Contains(t, out, "testcases/1.yaml")
	assert.Contains(t, out, "sequence 1: seq")
	assert.Contains(t, out, "step 2: insert (manual)")
	assert.Contains(t, out, "└── TC_2")
}

func TestFormatter_PrintFailures(t *testing.T) {
	f, buf := newTestFormatter(t)
	s := &domain.RunSummary{
		RunID: "run-1", Total: 3, Completed: 2, Failed: 1, Passed: 1, NotStarted: 1, NotStartedIDs: []string{"TC_3"},
		Results: []domain.ExecutionResult{
			{TestID: "TC_1", Outcome: domain.OutcomePass, Attempt: 1},
			{TestID: "TC_2", Outcome: domain.OutcomeFail, Attempt: 1, Failure: &domain.FailureDetail{
				SequenceID: 1, Step: 1, Field: "output", Expected: "Success", Actual: "Failure", Reason: "output mismatch",
			}},
		},
	}

	f.PrintFailures(s)
	out := buf.String()
	assert.Contains(t, out, "FAIL TC_2 (attempt 1)")
	assert.Contains(t, out, "sequence 1 step 1: output mismatch")
	assert.Contains(t, out, "expected: Success")
	assert.Contains(t, out, "actual:   Failure")
	assert.Contains(t, out, "1 test case(s) not started: TC_3")
	assert.NotContains(t, out, "TC_1")
}

func TestFormatter_PrintSummary(t *testing.T) {
	f, buf := newTestFormatter(t)
	s := &domain.RunSummary{RunID: "run-1", Total: 2, Completed: 2, Passed: 2, Elapsed: 1500 * time.Millisecond,
		Results: []domain.ExecutionResult{{TestID: "TC_1"}, {TestID: "TC_2"}}}

	require.NoError(t, f.PrintSummary(s))
	assert.Contains(t, buf.String(), "✓ All 2 test case(s) passed in 1.5s")
}

func TestVerbosePrinter(t *testing.T) {
	_, _ = newTestFormatter(t)
	var buf bytes.Buffer
	v := NewVerbosePrinter(&buf)

	v.OnEvent(aggregator.Started("TC_1", 1), aggregator.Progress{Total: 2})
	v.OnEvent(aggregator.AttemptDone(domain.ExecutionResult{TestID: "TC_1", Attempt: 1, Outcome: domain.OutcomeError, TimedOut: true,
		Duration: 2 * time.Second, Failure: &domain.FailureDetail{Reason: "timed out after 2s"}}), aggregator.Progress{Total: 2})

	assert.Equal(t, "[0/2] TC_1 attempt 1 TIMEOUT (2s): timed out after 2s\n", buf.String())
}
