package aggregator

import (
	"time"

	"tcm/internal/domain"
)

// EventKind tells the aggregator what a worker just did.
type EventKind int

const (
	// EventStarted is sent when an attempt begins.
	EventStarted EventKind = iota
	// EventAttempt carries the result of one finished attempt.
	EventAttempt
	// EventFinal carries the unit's final result. Exactly one per unit.
	EventFinal
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventAttempt:
		return "attempt"
	case EventFinal:
		return "final"
	default:
		return "unknown"
	}
}

// Event is one message on the aggregator channel.
type Event struct {
	Kind    EventKind
	TestID  string
	Attempt int
	Result  domain.ExecutionResult
	At      time.Time
}

// Started builds an EventStarted.
func Started(testID string, attempt int) Event {
	return Event{Kind: EventStarted, TestID: testID, Attempt: attempt, At: time.Now()}
}

// AttemptDone builds an EventAttempt.
func AttemptDone(r domain.ExecutionResult) Event {
	return Event{Kind: EventAttempt, TestID: r.TestID, Attempt: r.Attempt, Result: r, At: time.Now()}
}

// Finished builds an EventFinal. The result is marked final.
func Finished(r domain.ExecutionResult) Event {
	r.Final = true
	return Event{Kind: EventFinal, TestID: r.TestID, Attempt: r.Attempt, Result: r, At: time.Now()}
}

// Progress is the live projection of a run.
type Progress struct {
	Total     int
	Completed int
	Running   int
	Passed    int
	Failed    int
	Errored   int
	Attempts  int
	Elapsed   time.Duration
}

// SuccessRate is the percentage of completed units that passed.
func (p Progress) SuccessRate() float64 {
	if p.Completed == 0 {
		return 0
	}
	return float64(p.Passed) / float64(p.Completed) * 100
}

// Listener observes every event after it has been applied. Listeners are
// called from the aggregator goroutine, one event at a time.
type Listener interface {
	OnEvent(ev Event, p Progress)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ev Event, p Progress)

func (f ListenerFunc) OnEvent(ev Event, p Progress) { f(ev, p) }
