// Package circuitbreaker implements a thread-safe per-model circuit breaker
// for provider dispatch. When a model's provider starts failing, the breaker
// trips after a configurable number of consecutive failures and excludes the
// model from routing for a cooldown period before admitting a probe request.
package circuitbreaker

import (
	"sync"
	"time"
)

// State represents the current state of the circuit breaker.
type State int

const (
	// Closed is the normal operating state: requests are dispatched to the model.
	Closed State = iota
	// Open means the circuit has tripped: requests are not admitted.
	Open
	// HalfOpen allows probe requests through to test whether the model has recovered.
	HalfOpen
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

const (
	defaultFailureThreshold = 3
	defaultSuccessThreshold = 2
	defaultCooldown         = 60 * time.Second
)

// Breaker is a goroutine-safe circuit breaker that tracks consecutive
// failures and transitions between Closed, Open, and HalfOpen states.
type Breaker struct {
	mu               sync.Mutex
	state            State
	failureCount     int
	successCount     int
	failureThreshold int
	successThreshold int
	cooldown         time.Duration
	lastTripped      time.Time
	onStateChange    func(from, to State)

	// nowFunc is used for testing; defaults to time.Now.
	nowFunc func() time.Time
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithFailureThreshold sets the number of consecutive failures required to
// trip the breaker from Closed to Open. The default is 3.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets the number of consecutive successful probes
// required, while HalfOpen, to close the breaker. The default is 2.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// WithCooldown sets how long the breaker stays Open before admitting a probe.
// The default is 60 seconds.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

// WithOnStateChange registers a callback that fires on every state transition.
// The callback is invoked while the breaker's mutex is held, so it must not
// call back into the breaker.
func WithOnStateChange(fn func(from, to State)) Option {
	return func(b *Breaker) {
		b.onStateChange = fn
	}
}

// New creates a Breaker in the Closed state with the given options.
func New(opts ...Option) *Breaker {
	b := &Breaker{
		state:            Closed,
		failureThreshold: defaultFailureThreshold,
		successThreshold: defaultSuccessThreshold,
		cooldown:         defaultCooldown,
		nowFunc:          time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// CanExecute reports whether the next request against this model should be
// admitted.
//
// In Closed state it always returns true. In Open state it returns false
// unless the cooldown has elapsed, in which case it transitions to HalfOpen
// and returns true for a probe request. In HalfOpen state it also returns
// true — the orchestrator only ever drives one candidate's breaker at a time
// within a single fallback loop, so the breaker does not need to bound
// concurrent probes itself.
func (b *Breaker) CanExecute() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true
	case Open:
		if !b.nowFunc().Before(b.lastTripped.Add(b.cooldown)) {
			b.setState(HalfOpen)
			return true
		}
		return false
	case HalfOpen:
		return true
	default:
		return false
	}
}

// RecordSuccess records a successful call. In Closed state it resets the
// consecutive failure counter. In HalfOpen state it increments the
// consecutive success counter and closes the breaker once successThreshold
// is reached.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failureCount = 0
	case HalfOpen:
		b.successCount++
		if b.successCount >= b.successThreshold {
			b.setState(Closed)
			b.failureCount = 0
			b.successCount = 0
		}
	}
}

// RecordFailure records a failed call. In Closed state it increments the
// consecutive failure counter and trips the breaker once failureThreshold is
// reached. In HalfOpen state (probe failed) it immediately reopens the
// breaker.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failureCount++
		if b.failureCount >= b.failureThreshold {
			b.setState(Open)
			b.failureCount = 0
			b.successCount = 0
			b.lastTripped = b.nowFunc()
		}
	case HalfOpen:
		b.setState(Open)
		b.failureCount = 0
		b.successCount = 0
		b.lastTripped = b.nowFunc()
	}
}

// CurrentState returns the current breaker state. Note: in Open state this
// does NOT check the cooldown timer; use CanExecute for that.
func (b *Breaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// setState transitions the breaker and fires the callback if registered.
// Caller must hold b.mu.
func (b *Breaker) setState(to State) {
	from := b.state
	b.state = to
	if b.onStateChange != nil && from != to {
		b.onStateChange(from, to)
	}
}
