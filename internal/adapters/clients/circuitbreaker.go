package clients

import (
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

const (
	// StateClosed lets every request through.
	StateClosed State = iota

	// StateOpen refuses requests until the open timeout elapses.
	StateOpen

	// StateHalfOpen admits a limited number of trial requests.
	StateHalfOpen
)

var stateNames = [...]string{StateClosed: "closed", StateOpen: "open", StateHalfOpen: "half-open"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}

	return stateNames[s]
}

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// MaxFailures consecutive failures open the circuit.
	MaxFailures int

	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration

	// HalfOpenLimit bounds concurrent trial requests and is also the number of
	// trial successes needed to close the circuit.
	HalfOpenLimit int
}

// Counts is a snapshot of the breaker for health reporting.
type Counts struct {
	State       State
	Failures    int
	LastFailure time.Time
	OpenedAt    time.Time
}

// CircuitBreaker guards one downstream host.
//
//	closed    --MaxFailures consecutive failures-->  open
//	open      --Timeout elapsed, next Allow-->       half-open
//	half-open --HalfOpenLimit successes-->           closed
//	half-open --any failure-->                       open
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	trials      int
	lastFailure time.Time
	openedAt    time.Time
	onChange    func(from, to State)
}

// NewCircuitBreaker returns a closed breaker. Limits below 1 are raised to 1.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cfg.MaxFailures = max(cfg.MaxFailures, 1)
	cfg.HalfOpenLimit = max(cfg.HalfOpenLimit, 1)

	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to run after every transition. fn runs on the
// goroutine that caused the transition, outside the breaker's lock.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.onChange = fn
}

// Allow reports whether a request may proceed. Every allowed request must be
// followed by RecordSuccess or RecordFailure.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()

	allowed := false
	notify := func() {}

	switch cb.state {
	case StateClosed:
		allowed = true
	case StateOpen:
		if cb.now().Sub(cb.openedAt) >= cb.cfg.Timeout {
			notify = cb.setState(StateHalfOpen)
			cb.trials = 1
			allowed = true
		}
	case StateHalfOpen:
		if cb.trials < cb.cfg.HalfOpenLimit {
			cb.trials++
			allowed = true
		}
	}

	cb.mu.Unlock()
	notify()

	return allowed
}

// RecordSuccess reports a request that reached the downstream and got an
// answer.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()

	notify := func() {}

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.trials = max(cb.trials-1, 0)
		cb.successes++

		if cb.successes >= cb.cfg.HalfOpenLimit {
			notify = cb.setState(StateClosed)
		}
	}

	cb.mu.Unlock()
	notify()
}

// RecordFailure reports a failed request.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()

	notify := func() {}
	cb.lastFailure = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failures++

		if cb.failures >= cb.cfg.MaxFailures {
			notify = cb.setState(StateOpen)
		}
	case StateHalfOpen:
		cb.trials = max(cb.trials-1, 0)
		notify = cb.setState(StateOpen)
	}

	cb.mu.Unlock()
	notify()
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// Counts returns a snapshot of the breaker.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Counts{
		State:       cb.state,
		Failures:    cb.failures,
		LastFailure: cb.lastFailure,
		OpenedAt:    cb.openedAt,
	}
}

// setState moves to next and returns the notification to run once the lock
// is released. Caller holds mu.
func (cb *CircuitBreaker) setState(next State) func() {
	prev := cb.state
	if prev == next {
		return func() {}
	}

	cb.state = next
	cb.failures = 0
	cb.successes = 0
	cb.trials = 0

	if next == StateOpen {
		cb.openedAt = cb.now()
	}

	fn := cb.onChange
	if fn == nil {
		return func() {}
	}

	return func() { fn(prev, next) }
}
