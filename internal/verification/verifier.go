// Package verification compares the step records of an attempt against the
// expectations declared in its test case.
package verification

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"tcm/internal/domain"
)

// Strategy decides how an expected string matches an actual one.
type Strategy int

const (
	Exact Strategy = iota
	Contains
	Regex
)

func (s Strategy) String() string {
	switch s {
	case Exact:
		return "exact"
	case Contains:
		return "contains"
	case Regex:
		return "regex"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a flag value to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case "", "exact":
		return Exact, nil
	case "contains":
		return Contains, nil
	case "regex":
		return Regex, nil
	}
	return Exact, fmt.Errorf("unknown match strategy %q", name)
}

// Field names reported in a FailureDetail.
const (
	FieldSuccess = "success"
	FieldResult  = "result"
	FieldOutput  = "output"
	FieldStep    = "step"
)

// Verifier checks step records. It is safe for concurrent use.
type Verifier struct {
	result Strategy
	output Strategy

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// NewVerifier uses the same strategy for result and output.
func NewVerifier(strategy Strategy) *Verifier {
	return NewVerifierWith(strategy, strategy)
}

// NewVerifierWith uses separate strategies for result and output.
func NewVerifierWith(result, output Strategy) *Verifier {
	return &Verifier{
		result:   result,
		output:   output,
		patterns: make(map[string]*regexp.Regexp),
	}
}

// Verify returns the first mismatch among the executed steps, in log order,
// or nil when every executed step met its expectation. Manual steps and steps
// the test case does not declare are ignored.
func (v *Verifier) Verify(tc *domain.TestCase, steps []domain.StepLog) *domain.FailureDetail {
	index := expectations(tc)
	for _, log := range steps {
		st, ok := index[stepKey{log.SequenceID, log.Step}]
		if !ok || st.Manual || st.Expected == nil {
			continue
		}
		if d := v.CheckStep(st, log); d != nil {
			d.SequenceID = log.SequenceID
			return d
		}
	}
	return nil
}

// CheckStep compares one record with one step: success flag first, then
// result, then output.
func (v *Verifier) CheckStep(st domain.Step, log domain.StepLog) *domain.FailureDetail {
	exp := st.Expected
	if exp == nil {
		return nil
	}
	if exp.Success != nil && *exp.Success != log.Success {
		return &domain.FailureDetail{
			SequenceID: log.SequenceID,
			Step:       st.Step,
			Field:      FieldSuccess,
			Expected:   strconv.FormatBool(*exp.Success),
			Actual:     strconv.FormatBool(log.Success),
			Reason:     fmt.Sprintf("success mismatch (exit code %d)", log.ExitCode),
		}
	}
	if !v.match(v.result, exp.Result, log.Result) {
		return mismatch(st, log, FieldResult, v.result, exp.Result, log.Result)
	}
	if !v.match(v.output, exp.Output, log.Output) {
		return mismatch(st, log, FieldOutput, v.output, exp.Output, log.Output)
	}
	return nil
}

// Missing returns a failure for the first non-manual step that has no record.
func Missing(tc *domain.TestCase, steps []domain.StepLog) *domain.FailureDetail {
	seen := make(map[stepKey]bool, len(steps))
	for _, log := range steps {
		seen[stepKey{log.SequenceID, log.Step}] = true
	}
	for _, seq := range tc.TestSequences {
		for _, st := range seq.Steps {
			if st.Manual || seen[stepKey{seq.ID, st.Step}] {
				continue
			}
			return &domain.FailureDetail{
				SequenceID: seq.ID,
				Step:       st.Step,
				Field:      FieldStep,
				Expected:   "executed",
				Actual:     "not executed",
				Reason:     "step not executed",
			}
		}
	}
	return nil
}

func mismatch(st domain.Step, log domain.StepLog, field string, s Strategy, expected, actual string) *domain.FailureDetail {
	reason := field + " mismatch"
	if s != Exact {
		reason = fmt.Sprintf("%s mismatch (%s)", field, s)
	}
	return &domain.FailureDetail{
		SequenceID: log.SequenceID,
		Step:       st.Step,
		Field:      field,
		Expected:   expected,
		Actual:     actual,
		Reason:     reason,
	}
}

// match compares trimmed values. An invalid regular expression never matches.
func (v *Verifier) match(s Strategy, expected, actual string) bool {
	expected = strings.TrimSpace(expected)
	actual = strings.TrimSpace(actual)
	switch s {
	case Contains:
		return strings.Contains(actual, expected)
	case Regex:
		re := v.compile(expected)
		return re != nil && re.MatchString(actual)
	default:
		return expected == actual
	}
}

func (v *Verifier) compile(pattern string) *regexp.Regexp {
	v.mu.Lock()
	defer v.mu.Unlock()
	if re, ok := v.patterns[pattern]; ok {
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = nil
	}
	v.patterns[pattern] = re
	return re
}

type stepKey struct {
	seq  int
	step int
}

func expectations(tc *domain.TestCase) map[stepKey]domain.Step {
	index := make(map[stepKey]domain.Step, tc.StepCount())
	for _, seq := range tc.TestSequences {
		for _, st := range seq.Steps {
			index[stepKey{seq.ID, st.Step}] = st
		}
	}
	return index
}
