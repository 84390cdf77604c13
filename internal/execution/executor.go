package execution

import (
	"context"

	"tcm/internal/domain"
	"tcm/internal/parser"
)

// Output is what one attempt of a runnable produced.
type Output struct {
	ExitCode int
	// Log is the raw combined output of the attempt.
	Log     string
	LogPath string
	Steps   []domain.StepLog
	// Complete is set when the runnable reached the end of its step protocol.
	Complete    bool
	Interrupted *parser.StepRef
	// ProtocolErr is set when the log could not be parsed.
	ProtocolErr error
}

// Runnable is one executable attempt of a test case. A returned error means
// the attempt could not be launched at all.
type Runnable interface {
	Run(ctx context.Context) (Output, error)
}

// RunnableFunc adapts a function to Runnable.
type RunnableFunc func(ctx context.Context) (Output, error)

func (f RunnableFunc) Run(ctx context.Context) (Output, error) { return f(ctx) }

// Generator turns a test case into a runnable for the given attempt.
type Generator interface {
	Generate(tc *domain.TestCase, attempt int) (Runnable, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(tc *domain.TestCase, attempt int) (Runnable, error)

func (f GeneratorFunc) Generate(tc *domain.TestCase, attempt int) (Runnable, error) {
	return f(tc, attempt)
}

// Executor runs test cases and returns the frozen run summary
type Executor interface {
	Execute(ctx context.Context, cases []*domain.TestCase) (*domain.RunSummary, error)
}
