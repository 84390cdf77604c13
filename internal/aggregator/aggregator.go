// Package aggregator folds the results workers stream into a run summary.
// All mutation happens on one goroutine fed by a single channel.
package aggregator

import (
	"sync"
	"time"

	"tcm/internal/domain"
	"tcm/internal/logging"
)

const eventBuffer = 64

// Meta describes the run for the frozen summary.
type Meta struct {
	RunID       string
	Workers     int
	RetryPolicy string
}

// Aggregator owns the run state.
type Aggregator struct {
	ids       []string
	meta      Meta
	listeners []Listener

	events  chan Event
	done    chan struct{}
	started time.Time
	once    sync.Once

	mu       sync.RWMutex
	progress Progress
	finals   map[string]domain.ExecutionResult
	attempts []domain.ExecutionResult
	frozen   *domain.RunSummary
}

// New creates an aggregator for the selected units, in selection order.
func New(ids []string, meta Meta) *Aggregator {
	return &Aggregator{
		ids:      ids,
		meta:     meta,
		events:   make(chan Event, eventBuffer),
		done:     make(chan struct{}),
		progress: Progress{Total: len(ids)},
		finals:   make(map[string]domain.ExecutionResult, len(ids)),
	}
}

// Subscribe adds a listener. Call before Start.
func (a *Aggregator) Subscribe(l Listener) {
	a.listeners = append(a.listeners, l)
}

// Start launches the consumer goroutine.
func (a *Aggregator) Start() {
	a.started = time.Now()
	go a.consume()
}

// Publish hands an event to the consumer. Must not be called after Close.
func (a *Aggregator) Publish(ev Event) {
	a.events <- ev
}

// Close stops accepting events and waits until every published event has
// been applied.
func (a *Aggregator) Close() {
	a.once.Do(func() {
		close(a.events)
		if a.started.IsZero() {
			close(a.done)
			return
		}
		<-a.done
	})
}

// Snapshot returns the current progress. Safe to call from any goroutine.
func (a *Aggregator) Snapshot() Progress {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p := a.progress
	if !a.started.IsZero() {
		p.Elapsed = time.Since(a.started)
	}
	return p
}

func (a *Aggregator) consume() {
	defer close(a.done)
	for ev := range a.events {
		a.apply(ev)
		p := a.Snapshot()
		for _, l := range a.listeners {
			l.OnEvent(ev, p)
		}
	}
}

func (a *Aggregator) apply(ev Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch ev.Kind {
	case EventStarted:
		if ev.Attempt == 1 {
			a.progress.Running++
		}
	case EventAttempt:
		a.progress.Attempts++
		a.attempts = append(a.attempts, ev.Result)
	case EventFinal:
		if _, dup := a.finals[ev.TestID]; dup {
			logging.Warn("aggregator", "ignoring second final result for %s", ev.TestID)
			return
		}
		a.finals[ev.TestID] = ev.Result
		a.progress.Running--
		a.progress.Completed++
		switch ev.Result.Outcome {
		case domain.OutcomePass:
			a.progress.Passed++
		case domain.OutcomeFail:
			a.progress.Failed++
		default:
			a.progress.Errored++
		}
	}
}

// Freeze closes the aggregator and returns the immutable summary. Units
// without a final result are counted as not started. Later calls return the
// same summary.
func (a *Aggregator) Freeze(interrupted bool) *domain.RunSummary {
	a.Close()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.frozen != nil {
		return a.frozen
	}

	p := a.progress
	s := &domain.RunSummary{
		RunID:       a.meta.RunID,
		Workers:     a.meta.Workers,
		RetryPolicy: a.meta.RetryPolicy,
		StartedAt:   a.started,
		Total:       p.Total,
		Completed:   p.Completed,
		Passed:      p.Passed,
		Failed:      p.Failed,
		Errored:     p.Errored,
		NotStarted:  p.Total - p.Completed,
		Attempts:    p.Attempts,
		Interrupted: interrupted,
		SuccessRate: p.SuccessRate(),
		AttemptLog:  append([]domain.ExecutionResult(nil), a.attempts...),
	}
	if !a.started.IsZero() {
		s.Elapsed = time.Since(a.started)
	}
	for _, id := range a.ids {
		r, ok := a.finals[id]
		if !ok {
			s.NotStartedIDs = append(s.NotStartedIDs, id)
			continue
		}
		s.Results = append(s.Results, r)
		s.TotalDuration += r.Duration
	}
	if s.Completed > 0 {
		s.AverageDuration = s.TotalDuration / time.Duration(s.Completed)
	}
	a.frozen = s
	return s
}
