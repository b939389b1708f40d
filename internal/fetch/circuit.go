package fetch

import (
	"log"
	"sync"
	"time"
)

// CircuitState of one egress route.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half-open"
)

type breaker struct {
	state    CircuitState
	failures int // consecutive
	openedAt time.Time
	probing  bool // half-open: one test request in flight
}

// RouteHealth is a point-in-time view of one route's breaker,
// exposed for the /health handler.
type RouteHealth struct {
	State            CircuitState `json:"state"`
	ConsecutiveFails int          `json:"consecutive_failures"`
	CooldownLeft     float64      `json:"cooldown_left_seconds,omitempty"`
}

// CircuitRegistry holds one breaker per egress route. It is the only
// mutable state shared across concurrent pipeline items, so every
// read/update happens under the lock.
type CircuitRegistry struct {
	mu        sync.Mutex
	byRoute   map[string]*breaker
	threshold int
	cooldown  time.Duration
	now       func() time.Time
}

func NewCircuitRegistry(failureThreshold int, cooldown time.Duration) *CircuitRegistry {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	return &CircuitRegistry{
		byRoute:   make(map[string]*breaker),
		threshold: failureThreshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

func (r *CircuitRegistry) get(route string) *breaker {
	b, ok := r.byRoute[route]
	if !ok {
		b = &breaker{state: CircuitClosed}
		r.byRoute[route] = b
	}
	return b
}

// Allow reports whether the route may take a request right now. An open
// breaker flips to half-open once the cooldown has elapsed, and
// half-open admits exactly one probe until its outcome is recorded.
func (r *CircuitRegistry) Allow(route string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.get(route)
	switch b.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if r.now().Sub(b.openedAt) < r.cooldown {
			return false
		}
		b.state = CircuitHalfOpen
		b.probing = true
		log.Printf("[circuit] route=%s half-open after cooldown", route)
		return true
	case CircuitHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
	return false
}

// RecordSuccess resets the failure streak; a half-open probe success
// closes the circuit.
func (r *CircuitRegistry) RecordSuccess(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.get(route)
	if b.state == CircuitHalfOpen {
		log.Printf("[circuit] route=%s closed after successful probe", route)
	}
	b.state = CircuitClosed
	b.failures = 0
	b.probing = false
}

// RecordFailure bumps the streak; hitting the threshold (or failing a
// half-open probe) opens the circuit.
func (r *CircuitRegistry) RecordFailure(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.get(route)
	b.failures++
	b.probing = false

	switch {
	case b.state == CircuitHalfOpen:
		b.state = CircuitOpen
		b.openedAt = r.now()
		log.Printf("[circuit] route=%s re-opened (probe failed)", route)
	case b.failures >= r.threshold && b.state != CircuitOpen:
		b.state = CircuitOpen
		b.openedAt = r.now()
		log.Printf("[circuit] route=%s opened (%d consecutive failures)", route, b.failures)
	}
}

// State returns the route's current state, applying the open→half-open
// cooldown transition the same way Allow does.
func (r *CircuitRegistry) State(route string) CircuitState {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.get(route)
	if b.state == CircuitOpen && r.now().Sub(b.openedAt) >= r.cooldown {
		b.state = CircuitHalfOpen
	}
	return b.state
}

// Snapshot copies every route's health for introspection.
func (r *CircuitRegistry) Snapshot() map[string]RouteHealth {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]RouteHealth, len(r.byRoute))
	for name, b := range r.byRoute {
		h := RouteHealth{State: b.state, ConsecutiveFails: b.failures}
		if b.state == CircuitOpen {
			left := r.cooldown - r.now().Sub(b.openedAt)
			if left > 0 {
				h.CooldownLeft = left.Seconds()
			}
		}
		out[name] = h
	}
	return out
}
