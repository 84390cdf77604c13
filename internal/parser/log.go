package parser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/acarl005/stripansi"

	"tcm/internal/domain"
)

const maxLineSize = 4 * 1024 * 1024

// LogParser parses the marker protocol written by generated scripts
type LogParser struct{}

// NewLogParser creates a new LogParser
func NewLogParser() *LogParser {
	return &LogParser{}
}

// ParseString is Parse over an in-memory log.
func (p *LogParser) ParseString(log string) (*ExecutionLog, error) {
	return p.Parse(strings.NewReader(log))
}

// Parse reads an execution log. ANSI escape sequences are stripped before
// markers are recognised. A malformed marker is an error; output outside
// steps is kept in Stray.
func (p *LogParser) Parse(r io.Reader) (*ExecutionLog, error) {
	log := &ExecutionLog{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var (
		current *StepRef
		body    []string
		lineNo  int
	)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(stripansi.Strip(scanner.Text()), "\r")

		if !strings.HasPrefix(line, MarkerPrefix) {
			if current != nil {
				body = append(body, line)
			} else if strings.TrimSpace(line) != "" {
				log.Stray = append(log.Stray, line)
			}
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case MarkerCase:
			if len(fields) != 2 {
				return nil, fmt.Errorf("line %d: malformed case marker %q", lineNo, line)
			}
			log.TestCaseID = fields[1]

		case MarkerBegin:
			if current != nil {
				return nil, fmt.Errorf("line %d: step %d.%d began before step %d.%d ended", lineNo, atoiOr(fields, 1), atoiOr(fields, 2), current.SequenceID, current.Step)
			}
			ref, err := parseRef(fields, 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			current, body = &ref, nil

		case MarkerEnd:
			ref, err := parseRef(fields, 4)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if current == nil || *current != ref {
				return nil, fmt.Errorf("line %d: end of step %d.%d without matching begin", lineNo, ref.SequenceID, ref.Step)
			}
			exitCode, err := strconv.Atoi(fields[3])
			if err != nil {
				return nil, fmt.Errorf("line %d: bad exit code %q", lineNo, fields[3])
			}
			log.Steps = append(log.Steps, newStepLog(log.TestCaseID, ref, exitCode, body))
			current, body = nil, nil

		case MarkerDone:
			log.Complete = current == nil

		default:
			return nil, fmt.Errorf("line %d: unknown marker %q", lineNo, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read execution log: %w", err)
	}

	log.Interrupted = current
	return log, nil
}

func parseRef(fields []string, want int) (StepRef, error) {
	if len(fields) != want {
		return StepRef{}, fmt.Errorf("malformed marker %q", strings.Join(fields, " "))
	}
	seq, err := strconv.Atoi(fields[1])
	if err != nil {
		return StepRef{}, fmt.Errorf("bad sequence id %q", fields[1])
	}
	step, err := strconv.Atoi(fields[2])
	if err != nil {
		return StepRef{}, fmt.Errorf("bad step number %q", fields[2])
	}
	return StepRef{SequenceID: seq, Step: step}, nil
}

func atoiOr(fields []string, i int) int {
	if i >= len(fields) {
		return 0
	}
	n, _ := strconv.Atoi(fields[i])
	return n
}

// newStepLog splits a step's output: the first line is the result, the
// remaining lines, trimmed, are the output.
func newStepLog(testID string, ref StepRef, exitCode int, body []string) domain.StepLog {
	for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
		body = body[:len(body)-1]
	}
	var result, output string
	if len(body) > 0 {
		result = strings.TrimSpace(body[0])
		output = strings.TrimSpace(strings.Join(body[1:], "\n"))
	}
	return domain.StepLog{
		TestCaseID: testID,
		SequenceID: ref.SequenceID,
		Step:       ref.Step,
		ExitCode:   exitCode,
		Success:    exitCode == 0,
		Result:     result,
		Output:     output,
	}
}
