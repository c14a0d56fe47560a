// Circuit breaker guarding a single ICS source, adapted from
// control_plane/scheduler/circuit_breaker.go's queue-depth/saturation
// signals to a simple consecutive-failure counter per source.
package icsfetch

import (
	"sync"
	"time"
)

// CircuitState is the breaker's current state.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitHalfOpen
	CircuitOpen
)

func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "closed"
	case CircuitHalfOpen:
		return "half_open"
	case CircuitOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Circuit is a per-source circuit breaker: after Threshold consecutive
// failures it opens for Cooldown, then turns half-open, where Allow returns
// true until the next recorded success (closed) or failure (open again).
type Circuit struct {
	mu        sync.Mutex
	state     CircuitState
	failures  int
	threshold int
	cooldown  time.Duration
	openedAt  time.Time
}

// NewCircuit constructs a closed circuit with the given threshold/cooldown.
func NewCircuit(threshold int, cooldown time.Duration) *Circuit {
	if threshold <= 0 {
		threshold = 3
	}
	return &Circuit{state: CircuitClosed, threshold: threshold, cooldown: cooldown}
}

// Allow reports whether a fetch attempt should proceed.
func (c *Circuit) Allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == CircuitOpen && time.Since(c.openedAt) > c.cooldown {
		c.state = CircuitHalfOpen
	}
	return c.state != CircuitOpen
}

// RecordSuccess closes the circuit and resets the failure count.
func (c *Circuit) RecordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = CircuitClosed
	c.failures = 0
}

// RecordFailure increments the failure count, opening the circuit once the
// threshold is reached (including a failed half-open probe).
func (c *Circuit) RecordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == CircuitHalfOpen {
		c.state = CircuitOpen
		c.openedAt = time.Now()
		return
	}

	c.failures++
	if c.failures >= c.threshold {
		c.state = CircuitOpen
		c.openedAt = time.Now()
	}
}

// State returns the current state, for diagnostics.
func (c *Circuit) State() CircuitState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
