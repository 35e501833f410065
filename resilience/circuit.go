package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is blocking all requests.
	StateOpen
	// StateHalfOpen means the circuit is testing if the service recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the downstream dependency, e.g. "claude-api".
	Name string

	// FailureThreshold is the number of failures within Window that
	// opens the circuit.
	// Default: 5
	FailureThreshold int

	// SuccessThreshold is the number of half-open successes that
	// close the circuit.
	// Default: 2
	SuccessThreshold int

	// Timeout is how long the circuit stays open before probing.
	// Default: 30 seconds
	Timeout time.Duration

	// Window is the sliding window failures are counted within.
	// Default: 60 seconds
	Window time.Duration

	// HalfOpenMaxCalls is the max concurrent probe calls while half-open.
	// Default: 1
	HalfOpenMaxCalls int

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(from, to State)

	// IsFailure determines if an error should count as a failure.
	// Default: all non-nil errors are failures.
	IsFailure func(err error) bool
}

// CircuitBreaker fails fast once failure density within a sliding
// window crosses a threshold, then probes recovery with a bounded
// number of half-open calls.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	now    func() time.Time

	mu               sync.Mutex
	state            State
	failureTimes     []time.Time
	halfOpenInFlight int
	halfOpenSuccess  int
	failures         int64
	successes        int64
	rejected         int64
	lastFailure      time.Time
	lastTransition   time.Time
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	// Apply defaults
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 2
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Window <= 0 {
		config.Window = 60 * time.Second
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}

	cb := &CircuitBreaker{
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
	cb.lastTransition = cb.now()
	return cb
}

// Allow reports whether a call may proceed, performing any due state
// transition first. A nil return must be paired with exactly one
// RecordSuccess or RecordFailure.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentStateLocked() {
	case StateOpen:
		cb.rejected++
		return cb.openErrorLocked()
	case StateHalfOpen:
		if cb.halfOpenInFlight >= cb.config.HalfOpenMaxCalls {
			cb.rejected++
			return cb.openErrorLocked()
		}
		cb.halfOpenInFlight++
	}

	return nil
}

// RecordSuccess records a successful call.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.successes++

	if cb.state == StateHalfOpen {
		if cb.halfOpenInFlight > 0 {
			cb.halfOpenInFlight--
		}
		cb.halfOpenSuccess++
		if cb.halfOpenSuccess >= cb.config.SuccessThreshold {
			cb.setStateLocked(StateClosed)
		}
	}
}

// RecordFailure records a failed call.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	cb.failures++
	cb.lastFailure = now

	switch cb.state {
	case StateClosed:
		cb.failureTimes = append(cb.failureTimes, now)
		cb.pruneLocked(now)
		if len(cb.failureTimes) >= cb.config.FailureThreshold {
			cb.setStateLocked(StateOpen)
		}

	case StateHalfOpen:
		// Any failure during a probe reopens immediately.
		if cb.halfOpenInFlight > 0 {
			cb.halfOpenInFlight--
		}
		cb.setStateLocked(StateOpen)
	}
}

// Execute runs the operation through the circuit breaker.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.Allow(); err != nil {
		return err
	}

	err := op(ctx)
	if cb.config.IsFailure(err) {
		cb.RecordFailure()
	} else {
		cb.RecordSuccess()
	}
	return err
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked()
}

// Name returns the breaker's name.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// Reset resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateClosed {
		cb.setStateLocked(StateClosed)
	} else {
		cb.failureTimes = nil
	}
}

// pruneLocked drops failure timestamps older than the window.
func (cb *CircuitBreaker) pruneLocked(now time.Time) {
	cutoff := now.Add(-cb.config.Window)
	i := 0
	for i < len(cb.failureTimes) && !cb.failureTimes[i].After(cutoff) {
		i++
	}
	if i > 0 {
		cb.failureTimes = append(cb.failureTimes[:0], cb.failureTimes[i:]...)
	}
}

// currentStateLocked returns the state, moving Open to HalfOpen once
// the timeout has elapsed.
func (cb *CircuitBreaker) currentStateLocked() State {
	if cb.state == StateOpen && cb.now().Sub(cb.lastTransition) >= cb.config.Timeout {
		cb.setStateLocked(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) setStateLocked(state State) {
	if cb.state == state {
		return
	}
	from := cb.state
	cb.state = state
	cb.lastTransition = cb.now()

	switch state {
	case StateHalfOpen:
		cb.halfOpenInFlight = 0
		cb.halfOpenSuccess = 0
	case StateClosed:
		cb.failureTimes = nil
		cb.halfOpenInFlight = 0
		cb.halfOpenSuccess = 0
	}

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, state)
	}
}

func (cb *CircuitBreaker) openErrorLocked() error {
	return &CircuitOpenError{Name: cb.config.Name, Metrics: cb.metricsLocked()}
}

func (cb *CircuitBreaker) metricsLocked() CircuitBreakerMetrics {
	return CircuitBreakerMetrics{
		State:            cb.state,
		FailuresInWindow: len(cb.failureTimes),
		Failures:         cb.failures,
		Successes:        cb.successes,
		Rejected:         cb.rejected,
		LastFailure:      cb.lastFailure,
		LastStateChange:  cb.lastTransition,
	}
}

// Metrics returns current circuit breaker metrics.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.currentStateLocked()
	cb.pruneLocked(cb.now())
	return cb.metricsLocked()
}

// CircuitBreakerMetrics contains circuit breaker statistics.
type CircuitBreakerMetrics struct {
	State            State
	FailuresInWindow int
	Failures         int64
	Successes        int64
	Rejected         int64
	LastFailure      time.Time
	LastStateChange  time.Time
}
