package domain

import (
	"fmt"
	"time"
)

// Outcome classifies one attempt or one unit.
type Outcome int

const (
	OutcomePass Outcome = iota
	OutcomeFail
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "pass"
	case OutcomeFail:
		return "fail"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the outcome as its lower-case name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses the lower-case outcome name.
func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "pass":
		*o = OutcomePass
	case "fail":
		*o = OutcomeFail
	case "error":
		*o = OutcomeError
	default:
		return fmt.Errorf("unknown outcome %q", string(b))
	}
	return nil
}

// StepLog is the record a runnable emits for one executed step.
type StepLog struct {
	TestCaseID string `json:"test_case_id"`
	SequenceID int    `json:"sequence_id"`
	Step       int    `json:"step"`
	Command    string `json:"command,omitempty"`
	ExitCode   int    `json:"exit_code"`
	Success    bool   `json:"success"`
	Result     string `json:"result"`
	Output     string `json:"output"`
}

// FailureDetail pinpoints why an attempt did not pass.
type FailureDetail struct {
	SequenceID int    `json:"sequence_id,omitempty"`
	Step       int    `json:"step,omitempty"`
	Field      string `json:"field,omitempty"`
	Expected   string `json:"expected,omitempty"`
	Actual     string `json:"actual,omitempty"`
	Reason     string `json:"reason"`
}

func (f *FailureDetail) String() string {
	if f == nil {
		return ""
	}
	if f.Step == 0 {
		return f.Reason
	}
	if f.Field == "" {
		return fmt.Sprintf("sequence %d step %d: %s", f.SequenceID, f.Step, f.Reason)
	}
	return fmt.Sprintf("sequence %d step %d: %s (expected %q, found %q)", f.SequenceID, f.Step, f.Reason, f.Expected, f.Actual)
}

// ExecutionResult is produced once per attempt, plus once more per unit with
// Final set.
type ExecutionResult struct {
	TestID   string         `json:"test_id"`
	Outcome  Outcome        `json:"outcome"`
	Attempt  int            `json:"attempt"`
	Final    bool           `json:"final"`
	Duration time.Duration  `json:"duration"`
	TimedOut bool           `json:"timed_out,omitempty"`
	Failure  *FailureDetail `json:"failure,omitempty"`
	Output   string         `json:"output,omitempty"`
}

// Passed reports whether the result is a pass.
func (r ExecutionResult) Passed() bool {
	return r.Outcome == OutcomePass
}

// RunSummary is the frozen aggregate of a run.
type RunSummary struct {
	RunID           string            `json:"run_id"`
	Workers         int               `json:"workers"`
	RetryPolicy     string            `json:"retry_policy"`
	StartedAt       time.Time         `json:"started_at"`
	Total           int               `json:"total"`
	Completed       int               `json:"completed"`
	Passed          int               `json:"passed"`
	Failed          int               `json:"failed"`
	Errored         int               `json:"errored"`
	NotStarted      int               `json:"not_started"`
	NotStartedIDs   []string          `json:"not_started_ids,omitempty"`
	Attempts        int               `json:"attempts"`
	Interrupted     bool              `json:"interrupted"`
	TotalDuration   time.Duration     `json:"total_duration"`
	AverageDuration time.Duration     `json:"average_duration"`
	Elapsed         time.Duration     `json:"elapsed"`
	SuccessRate     float64           `json:"success_rate"`
	Results         []ExecutionResult `json:"results"`
	AttemptLog      []ExecutionResult `json:"attempt_log,omitempty"`
}

// Failures returns the final results that did not pass.
func (s *RunSummary) Failures() []ExecutionResult {
	var out []ExecutionResult
	for _, r := range s.Results {
		if !r.Passed() {
			out = append(out, r)
		}
	}
	return out
}

// AttemptsFor returns every attempt recorded for a test id, in attempt order.
func (s *RunSummary) AttemptsFor(testID string) []ExecutionResult {
	var out []ExecutionResult
	for _, r := range s.AttemptLog {
		if r.TestID == testID {
			out = append(out, r)
		}
	}
	return out
}

// AllPassed reports whether every selected unit ran and passed.
func (s *RunSummary) AllPassed() bool {
	return s.Passed == s.Total
}
