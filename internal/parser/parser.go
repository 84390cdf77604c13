// Package parser reads the execution log a generated script writes and turns
// its step markers into step records.
package parser

import (
	"io"

	"tcm/internal/domain"
)

// Marker lines of the execution log protocol. Everything between a BEGIN and
// its END line is the step command's combined output.
const (
	MarkerPrefix = "##TCM-"
	MarkerCase   = "##TCM-CASE"
	MarkerBegin  = "##TCM-BEGIN"
	MarkerEnd    = "##TCM-END"
	MarkerDone   = "##TCM-DONE"
)

// ExecutionLog is the parsed form of one attempt's output.
type ExecutionLog struct {
	TestCaseID string
	Steps      []domain.StepLog
	// Complete is set when the script reached its final marker.
	Complete bool
	// Interrupted is the step that began but never ended, if any.
	Interrupted *StepRef
	// Stray holds output printed outside any step.
	Stray []string
}

// StepRef identifies a step inside a test case.
type StepRef struct {
	SequenceID int
	Step       int
}

// Parser parses execution logs
type Parser interface {
	Parse(r io.Reader) (*ExecutionLog, error)
}
