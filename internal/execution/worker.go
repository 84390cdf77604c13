package execution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tcm/internal/aggregator"
	"tcm/internal/config"
	"tcm/internal/domain"
	"tcm/internal/logging"
	"tcm/internal/verification"
)

// maxKeptOutput is how much of an attempt's log is kept in its result.
const maxKeptOutput = 16 * 1024

// WorkerPool manages a pool of workers for parallel test execution
type WorkerPool struct {
	config    *config.Config
	generator Generator
	verifier  *verification.Verifier
	retry     RetryPolicy
	runID     string
	listeners []aggregator.Listener
	tracer    trace.Tracer

	mu  sync.Mutex
	agg *aggregator.Aggregator
}

var _ Executor = (*WorkerPool)(nil)

// NewWorkerPool creates a new WorkerPool. A nil verifier is built from the
// configured match strategy when a run starts.
func NewWorkerPool(cfg *config.Config, generator Generator, verifier *verification.Verifier) *WorkerPool {
	return &WorkerPool{
		config:    cfg,
		generator: generator,
		verifier:  verifier,
		tracer:    otel.Tracer("tcm/internal/execution"),
	}
}

// SetProgress adds a listener that follows the run, such as a progress bar.
func (wp *WorkerPool) SetProgress(l aggregator.Listener) {
	wp.listeners = append(wp.listeners, l)
}

// SetRunID fixes the id of the next run. Without it each run gets a fresh
// UUID.
func (wp *WorkerPool) SetRunID(id string) {
	wp.runID = id
}

// Snapshot returns live progress of the current run.
func (wp *WorkerPool) Snapshot() aggregator.Progress {
	wp.mu.Lock()
	agg := wp.agg
	wp.mu.Unlock()
	if agg == nil {
		return aggregator.Progress{}
	}
	return agg.Snapshot()
}

// Execute runs every case and returns the frozen summary. Cancelling ctx
// stops dispatch; attempts already running finish and are not retried.
func (wp *WorkerPool) Execute(ctx context.Context, cases []*domain.TestCase) (*domain.RunSummary, error) {
	if wp.generator == nil {
		return nil, errors.New("execution: no generator configured")
	}
	if wp.verifier == nil {
		strategy, err := verification.ParseStrategy(wp.config.Match)
		if err != nil {
			return nil, err
		}
		wp.verifier = verification.NewVerifier(strategy)
	}
	wp.retry = NewRetryPolicy(wp.config)

	runID := wp.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	workerCount := wp.config.Workers
	if workerCount <= 0 {
		workerCount = 1
	}

	ids := make([]string, len(cases))
	for i, tc := range cases {
		ids[i] = tc.ID
	}
	agg := aggregator.New(ids, aggregator.Meta{RunID: runID, Workers: workerCount, RetryPolicy: wp.retry.String()})
	for _, l := range wp.listeners {
		agg.Subscribe(l)
	}
	wp.mu.Lock()
	wp.agg = agg
	wp.mu.Unlock()
	agg.Start()

	ctx, span := wp.tracer.Start(ctx, "tcm.run", trace.WithAttributes(
		attribute.String("tcm.run_id", runID),
		attribute.Int("tcm.units", len(cases)),
		attribute.Int("tcm.workers", workerCount),
	))
	defer span.End()

	logging.Info("execution", "run %s: %d units, %d workers, retry %s", runID, len(cases), workerCount, wp.retry)

	queue := make(chan *Unit)
	go func() {
		defer close(queue)
		for _, tc := range cases {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case queue <- NewUnit(tc):
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 1; i <= workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for unit := range queue {
				// The dispatcher may hand over one unit after a stop.
				if ctx.Err() != nil {
					continue
				}
				wp.runUnit(ctx, workerID, unit, agg)
			}
		}(i)
	}
	wg.Wait()

	interrupted := ctx.Err() != nil
	summary := agg.Freeze(interrupted)
	if interrupted {
		logging.Warn("execution", "run %s stopped: %d completed, %d not started", runID, summary.Completed, summary.NotStarted)
		span.SetAttributes(attribute.Bool("tcm.interrupted", true))
	}
	if !summary.AllPassed() {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d units did not pass", summary.Total-summary.Passed, summary.Total))
	}
	return summary, nil
}

// runUnit drives one unit through its attempts and publishes its final result.
func (wp *WorkerPool) runUnit(ctx context.Context, workerID int, u *Unit, agg *aggregator.Aggregator) {
	ctx, span := wp.tracer.Start(ctx, "tcm.unit", trace.WithAttributes(
		attribute.String("tcm.test_id", u.Case.ID),
		attribute.Int("tcm.worker", workerID),
	))
	defer span.End()

	start := time.Now()
	var last domain.ExecutionResult
	for {
		wp.transition(u, StateRunning)
		agg.Publish(aggregator.Started(u.Case.ID, u.Attempt))

		last = wp.attempt(ctx, u)
		agg.Publish(aggregator.AttemptDone(last))

		if last.Passed() || !wp.retry.ShouldRetry(u.Attempt) || ctx.Err() != nil {
			wp.transition(u, terminalState(last.Outcome))
			break
		}

		wp.transition(u, StateRetryPending)
		delay := wp.retry.DelayAfter(u.Attempt)
		logging.Debug("execution", "%s attempt %d %s, retrying in %s", u.Case.ID, u.Attempt, last.Outcome, delay)
		if !wait(ctx, delay) {
			wp.transition(u, terminalState(last.Outcome))
			break
		}
	}

	last.Duration = time.Since(start)
	span.SetAttributes(attribute.String("tcm.outcome", last.Outcome.String()), attribute.Int("tcm.attempts", u.Attempt))
	if !last.Passed() {
		span.SetStatus(codes.Error, last.Failure.String())
	}
	agg.Publish(aggregator.Finished(last))
}

// attempt generates and runs one attempt under the per-attempt timeout. The
// attempt context is detached from ctx so a stop never kills a running step.
func (wp *WorkerPool) attempt(ctx context.Context, u *Unit) domain.ExecutionResult {
	ctx, span := wp.tracer.Start(ctx, "tcm.attempt", trace.WithAttributes(attribute.Int("tcm.attempt", u.Attempt)))
	defer span.End()

	res := domain.ExecutionResult{TestID: u.Case.ID, Attempt: u.Attempt}
	start := time.Now()

	runnable, err := wp.generator.Generate(u.Case, u.Attempt)
	if err != nil {
		res.Outcome = domain.OutcomeError
		res.Failure = &domain.FailureDetail{Reason: fmt.Sprintf("script generation failed: %v", err)}
		res.Duration = time.Since(start)
		span.RecordError(err)
		return res
	}

	attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), wp.config.Timeout)
	defer cancel()

	out, runErr := runnable.Run(attemptCtx)
	res.Duration = time.Since(start)
	res.TimedOut = errors.Is(attemptCtx.Err(), context.DeadlineExceeded)
	res.Output = tail(out.Log, maxKeptOutput)
	res.Outcome, res.Failure = wp.classify(u.Case, out, runErr, res.TimedOut)

	if runErr != nil {
		span.RecordError(runErr)
	}
	span.SetAttributes(attribute.String("tcm.outcome", res.Outcome.String()), attribute.Bool("tcm.timed_out", res.TimedOut))
	return res
}

// classify decides the attempt outcome. A step mismatch is a failure even
// when the attempt later died; problems outside the steps are errors.
func (wp *WorkerPool) classify(tc *domain.TestCase, out Output, runErr error, timedOut bool) (domain.Outcome, *domain.FailureDetail) {
	if runErr != nil {
		return domain.OutcomeError, &domain.FailureDetail{Reason: fmt.Sprintf("launch failed: %v", runErr)}
	}
	if d := wp.verifier.Verify(tc, out.Steps); d != nil {
		return domain.OutcomeFail, d
	}
	if timedOut {
		return domain.OutcomeError, &domain.FailureDetail{Reason: fmt.Sprintf("timed out after %s", wp.config.Timeout)}
	}
	if out.ProtocolErr != nil {
		return domain.OutcomeError, &domain.FailureDetail{Reason: fmt.Sprintf("unreadable execution log: %v", out.ProtocolErr)}
	}
	if out.ExitCode != 0 || !out.Complete {
		d := &domain.FailureDetail{Reason: fmt.Sprintf("script exited with code %d outside the step protocol", out.ExitCode)}
		if ref := out.Interrupted; ref != nil {
			d.SequenceID, d.Step = ref.SequenceID, ref.Step
			d.Reason = fmt.Sprintf("script died during step (exit code %d)", out.ExitCode)
		}
		return domain.OutcomeError, d
	}
	if d := verification.Missing(tc, out.Steps); d != nil {
		return domain.OutcomeFail, d
	}
	return domain.OutcomePass, nil
}

func (wp *WorkerPool) transition(u *Unit, to State) {
	if err := u.Transition(to); err != nil {
		logging.Error("execution", err, "unit lifecycle")
	}
}

// wait sleeps for d unless ctx is done first. It reports whether the full
// delay elapsed.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
