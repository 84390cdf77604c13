package report

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/jstemmer/go-junit-report/v2/junit"

	"tcm/internal/domain"
)

// JUnitFormatter renders the run as one JUnit test suite. Units that never
// started are reported as skipped.
type JUnitFormatter struct {
	suiteName string
}

// NewJUnitFormatter creates a new JUnit formatter
func NewJUnitFormatter(suiteName string) *JUnitFormatter {
	if suiteName == "" {
		suiteName = "tcm"
	}
	return &JUnitFormatter{suiteName: suiteName}
}

// Format renders s as JUnit XML.
func (jf *JUnitFormatter) Format(s *domain.RunSummary) (string, error) {
	suite := junit.Testsuite{
		Name: jf.suiteName,
		Time: seconds(s.Elapsed),
	}
	if host, err := os.Hostname(); err == nil {
		suite.Hostname = host
	}
	if !s.StartedAt.IsZero() {
		suite.SetTimestamp(s.StartedAt)
	}
	suite.AddProperty("run_id", s.RunID)
	suite.AddProperty("workers", strconv.Itoa(s.Workers))
	suite.AddProperty("retry", s.RetryPolicy)
	if s.Interrupted {
		suite.AddProperty("interrupted", "true")
	}

	for _, r := range s.Results {
		suite.AddTestcase(jf.testcase(s, r))
	}
	for _, id := range s.NotStartedIDs {
		suite.AddTestcase(junit.Testcase{
			Name:      id,
			Classname: jf.suiteName,
			Time:      seconds(0),
			Skipped:   &junit.Result{Message: "not started"},
		})
	}

	suites := junit.Testsuites{Name: jf.suiteName, Time: seconds(s.Elapsed)}
	suites.AddSuite(suite)

	var buf bytes.Buffer
	if err := suites.WriteXML(&buf); err != nil {
		return "", fmt.Errorf("render junit: %w", err)
	}
	return buf.String(), nil
}

func (jf *JUnitFormatter) testcase(s *domain.RunSummary, r domain.ExecutionResult) junit.Testcase {
	tc := junit.Testcase{
		Name:      r.TestID,
		Classname: jf.suiteName,
		Time:      seconds(r.Duration),
	}
	if r.Output != "" {
		tc.SystemOut = &junit.Output{Data: r.Output}
	}

	var data string
	if r.Attempt > 1 {
		for _, a := range s.AttemptsFor(r.TestID) {
			data += fmt.Sprintf("attempt %d: %s %s\n", a.Attempt, a.Outcome, a.Failure.String())
		}
	}

	switch r.Outcome {
	case domain.OutcomeFail:
		typ := "mismatch"
		if r.Failure != nil && r.Failure.Field != "" {
			typ = r.Failure.Field
		}
		tc.Failure = &junit.Result{Message: r.Failure.String(), Type: typ, Data: data}
	case domain.OutcomeError:
		typ := "error"
		if r.TimedOut {
			typ = "timeout"
		}
		tc.Error = &junit.Result{Message: r.Failure.String(), Type: typ, Data: data}
	}
	return tc
}
