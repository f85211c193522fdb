package resilience

import (
	"errors"
	"sync"
	"time"

	"telegram-intent-analyzer/backend/pkg/logger"
)

// ErrCircuitOpen is returned when the breaker is short-circuiting requests.
var ErrCircuitOpen = errors.New("circuit open")

// expectedError wraps an application-level error that travelled over a
// healthy connection. Execute returns the inner error without counting a
// failure.
type expectedError struct {
	err error
}

func (e expectedError) Error() string { return e.err.Error() }

func (e expectedError) Unwrap() error { return e.err }

// Expected marks err as an application outcome rather than an availability
// failure. The service answered; what it said is the caller's problem.
func Expected(err error) error {
	if err == nil {
		return nil
	}
	return expectedError{err: err}
}

// State represents the current state of a circuit breaker
type State string

const (
	// StateClosed means requests are allowed to pass through
	StateClosed State = "closed"
	// StateOpen means requests are being short-circuited
	StateOpen State = "open"
	// StateHalfOpen means a limited number of test requests are allowed
	StateHalfOpen State = "half-open"
)

// CircuitBreaker guards calls to the Telegram gateway so a dead sidecar
// fails fast instead of tying up every sync and analysis run in timeouts.
type CircuitBreaker struct {
	name             string
	failureThreshold uint
	successThreshold uint
	retryTimeout     time.Duration
	log              *logger.Logger

	mu              sync.Mutex
	state           State
	failureCount    uint
	successCount    uint
	nextAttemptTime time.Time
}

// Config holds configuration for a circuit breaker
type Config struct {
	Name             string
	FailureThreshold uint
	SuccessThreshold uint
	RetryTimeout     time.Duration
}

// DefaultConfig returns a default circuit breaker configuration
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		RetryTimeout:     60 * time.Second,
	}
}

// New creates a new circuit breaker
func New(config Config, log *logger.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		name:             config.Name,
		state:            StateClosed,
		failureThreshold: config.FailureThreshold,
		successThreshold: config.SuccessThreshold,
		retryTimeout:     config.RetryTimeout,
		log:              log,
	}
}

// Execute runs fn through the circuit breaker
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allowRequest() {
		cb.log.Warn("circuit breaker preventing request", "name", cb.name)
		return ErrCircuitOpen
	}

	err := fn()
	if err != nil {
		var expected expectedError
		if errors.As(err, &expected) {
			cb.recordSuccess()
			return expected.err
		}
		cb.recordFailure()
		return err
	}

	cb.recordSuccess()
	return nil
}

// State returns the breaker's current state.
func (cb *CircuitBreaker) CurrentState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Now().After(cb.nextAttemptTime) {
			cb.state = StateHalfOpen
			cb.successCount = 0
			cb.log.Info("circuit breaker half-open", "name", cb.name)
			return true
		}
		return false
	default: // half-open: let the probe through
		return true
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++

	if cb.state == StateHalfOpen || cb.failureCount >= cb.failureThreshold {
		cb.state = StateOpen
		cb.failureCount = 0
		cb.nextAttemptTime = time.Now().Add(cb.retryTimeout)
		cb.log.Warn("circuit breaker opened",
			"name", cb.name,
			"retry_at", cb.nextAttemptTime,
		)
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.state = StateClosed
			cb.failureCount = 0
			cb.log.Info("circuit breaker closed", "name", cb.name)
		}
	case StateClosed:
		cb.failureCount = 0
	}
}
