package execution

import (
	"errors"
	"fmt"

	"tcm/internal/domain"
)

// State is the lifecycle position of a unit.
type State int

const (
	StatePending State = iota
	StateRunning
	StateRetryPending
	StatePassed
	StateFailed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateRetryPending:
		return "retry-pending"
	case StatePassed:
		return "passed"
	case StateFailed:
		return "failed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether no transition leaves the state.
func (s State) Terminal() bool {
	return s == StatePassed || s == StateFailed || s == StateErrored
}

// ErrInvalidTransition is returned for a move the lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid unit transition")

var transitions = map[State][]State{
	StatePending:      {StateRunning},
	StateRunning:      {StatePassed, StateFailed, StateErrored, StateRetryPending},
	StateRetryPending: {StateRunning, StateFailed, StateErrored},
}

// Unit is one selected test case on its way through the pool.
type Unit struct {
	Case    *domain.TestCase
	State   State
	Attempt int
	History []State
}

// NewUnit creates a pending unit.
func NewUnit(tc *domain.TestCase) *Unit {
	return &Unit{Case: tc, State: StatePending, History: []State{StatePending}}
}

// Transition moves the unit to the next state. Entering Running starts a new
// attempt.
func (u *Unit) Transition(to State) error {
	for _, allowed := range transitions[u.State] {
		if allowed == to {
			u.State = to
			u.History = append(u.History, to)
			if to == StateRunning {
				u.Attempt++
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s for %s", ErrInvalidTransition, u.State, to, u.Case.ID)
}

// terminalState maps an outcome to the state that ends the unit.
func terminalState(o domain.Outcome) State {
	switch o {
	case domain.OutcomePass:
		return StatePassed
	case domain.OutcomeFail:
		return StateFailed
	default:
		return StateErrored
	}
}
