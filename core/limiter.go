package core

import (
	"fmt"
	"sync"
)

// DefaultMaxRoundTrips bounds reasoning/tool-execution cycles of one run.
const DefaultMaxRoundTrips = 8

// RoundTripLimiter enforces a maximum number of reasoning to tool-execution
// round trips per run.
type RoundTripLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewRoundTripLimiter creates a new limiter. If max <= 0 DefaultMaxRoundTrips
// is used.
func NewRoundTripLimiter(max int) *RoundTripLimiter {
	if max <= 0 {
		max = DefaultMaxRoundTrips
	}
	return &RoundTripLimiter{max: max}
}

// Increment counts one round trip and returns an error once the limit is exceeded.
func (rl *RoundTripLimiter) Increment() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.count++
	if rl.count > rl.max {
		return fmt.Errorf("exceeded max round trips: %d", rl.max)
	}

	return nil
}

// Count returns the number of round trips made.
func (rl *RoundTripLimiter) Count() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return rl.count
}

// Remaining returns how many round trips are left.
func (rl *RoundTripLimiter) Remaining() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.count >= rl.max {
		return 0
	}

	return rl.max - rl.count
}

// Max returns the configured bound.
func (rl *RoundTripLimiter) Max() int { return rl.max }
