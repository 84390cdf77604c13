package execution

import (
	"fmt"
	"time"

	"tcm/internal/config"
)

// Backoff is the delay strategy between attempts.
type Backoff int

const (
	BackoffNone Backoff = iota
	BackoffFixed
	BackoffExponential
)

func (b Backoff) String() string {
	switch b {
	case BackoffFixed:
		return "fixed"
	case BackoffExponential:
		return "exponential"
	default:
		return "none"
	}
}

// ParseBackoff maps a flag value to a Backoff. Unknown names mean none.
func ParseBackoff(name string) Backoff {
	switch name {
	case "fixed":
		return BackoffFixed
	case "exponential":
		return BackoffExponential
	default:
		return BackoffNone
	}
}

// maxShift caps exponential growth.
const maxShift = 16

// RetryPolicy decides whether a failed attempt is retried and how long to
// wait first. The zero value is a disabled policy.
type RetryPolicy struct {
	Enabled     bool
	MaxAttempts int
	Backoff     Backoff
	Delay       time.Duration
}

// NewRetryPolicy builds the policy from configuration. Enabling retry with
// a single attempt falls back to config.DefaultMaxAttempts.
func NewRetryPolicy(cfg *config.Config) RetryPolicy {
	if !cfg.Retry {
		return RetryPolicy{}
	}
	attempts := cfg.MaxAttempts
	if attempts < 2 {
		attempts = config.DefaultMaxAttempts
	}
	return RetryPolicy{
		Enabled:     true,
		MaxAttempts: attempts,
		Backoff:     ParseBackoff(cfg.Backoff),
		Delay:       cfg.BackoffDelay,
	}
}

// Attempts is the maximum number of attempts per unit.
func (p RetryPolicy) Attempts() int {
	if !p.Enabled || p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// ShouldRetry reports whether another attempt may follow the given one.
func (p RetryPolicy) ShouldRetry(attempt int) bool {
	return attempt < p.Attempts()
}

// DelayAfter is the wait after the given failed attempt.
func (p RetryPolicy) DelayAfter(attempt int) time.Duration {
	switch p.Backoff {
	case BackoffFixed:
		return p.Delay
	case BackoffExponential:
		shift := attempt - 1
		if shift < 0 {
			shift = 0
		}
		if shift > maxShift {
			shift = maxShift
		}
		return p.Delay << shift
	default:
		return 0
	}
}

func (p RetryPolicy) String() string {
	if !p.Enabled {
		return "disabled"
	}
	if p.Backoff == BackoffNone || p.Delay == 0 {
		return fmt.Sprintf("up to %d attempts", p.Attempts())
	}
	return fmt.Sprintf("up to %d attempts, %s backoff %s", p.Attempts(), p.Backoff, p.Delay)
}
