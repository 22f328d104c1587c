package hold

import (
	"time"

	"github.com/tonatiuh19/intelivoucher-checkout/clock"
)

const (
	DefaultDuration     = 15 * time.Minute
	DefaultLowThreshold = 2 * time.Minute
)

// Policy decides what an elapsed hold means for the checkout.
type Policy string

const (
	// ADVISORY only drives the low-time warning. Payment is never blocked.
	ADVISORY Policy = "advisory"
	// HARD blocks payment once the hold has run out.
	HARD Policy = "hard"
)

func ParsePolicy(s string) (Policy, bool) {
	switch Policy(s) {
	case ADVISORY, HARD:
		return Policy(s), true
	default:
		return "", false
	}
}

// Timer counts down a held inventory window in whole seconds.
type Timer struct {
	Duration     time.Duration
	LowThreshold time.Duration
	StartedAt    time.Time
	// BoundStep is the checkout step the countdown is currently shown on.
	BoundStep string

	clock clock.Clock
}

func Start(clk clock.Clock, duration time.Duration, step string) *Timer {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Timer{
		Duration:     duration,
		LowThreshold: DefaultLowThreshold,
		StartedAt:    clk.Now(),
		BoundStep:    step,
		clock:        clk,
	}
}

// RemainingSeconds drops by one for every full second elapsed and stops at zero.
func (t *Timer) RemainingSeconds() int {
	elapsed := t.clock.Now().Sub(t.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := t.Duration - elapsed.Truncate(time.Second)
	if remaining <= 0 {
		return 0
	}
	return int(remaining / time.Second)
}

func (t *Timer) Expired() bool {
	return t.RemainingSeconds() == 0
}

// IsLow is true once the remaining time drops below the warning threshold.
func (t *Timer) IsLow() bool {
	return time.Duration(t.RemainingSeconds())*time.Second < t.LowThreshold
}

func (t *Timer) Bind(step string) {
	t.BoundStep = step
}

// Blocks reports whether the hold prevents payment under the given policy.
func (t *Timer) Blocks(p Policy) bool {
	return p == HARD && t.Expired()
}
