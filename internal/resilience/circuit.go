// Package resilience provides the three primitives C1 of genforge's core:
// a circuit breaker, an LRU cache, and a sliding window.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// State is one of the three circuit breaker states.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Execute when the breaker fails fast.
var ErrCircuitOpen = errors.New("resilience: circuit breaker open")

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}

// CircuitBreaker implements the closed/open/half-open state machine from
// spec.md §4.1. It is safe for concurrent use.
type CircuitBreaker struct {
	mu sync.Mutex

	cfg             CircuitBreakerConfig
	state           State
	failures        int
	lastFailureTime time.Time

	now func() time.Time
}

// NewCircuitBreaker builds a breaker in the closed state.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 1
	}
	return &CircuitBreaker{cfg: cfg, state: Closed, now: time.Now}
}

// State returns the current state, re-evaluating open->half_open transitions
// first, matching Execute's own re-evaluation.
func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reevaluateLocked()
	return b.state
}

func (b *CircuitBreaker) reevaluateLocked() {
	if b.state == Open && b.now().Sub(b.lastFailureTime) >= b.cfg.ResetTimeout {
		b.state = HalfOpen
	}
}

// Execute re-evaluates the state, fails fast with ErrCircuitOpen when the
// breaker is open, and otherwise invokes fn. A successful call closes the
// breaker and zeroes the failure counter; a failing call increments the
// counter and opens the breaker once the counter reaches the threshold.
func (b *CircuitBreaker) Execute(fn func() error) error {
	b.mu.Lock()
	b.reevaluateLocked()
	if b.state == Open {
		b.mu.Unlock()
		return ErrCircuitOpen
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		b.lastFailureTime = b.now()
		if b.failures >= b.cfg.FailureThreshold {
			b.state = Open
		}
		return err
	}

	b.state = Closed
	b.failures = 0
	return nil
}

// Reset unconditionally returns the breaker to closed with a zeroed counter.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failures = 0
}

// Failures returns the current failure counter, for diagnostics/tests.
func (b *CircuitBreaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
