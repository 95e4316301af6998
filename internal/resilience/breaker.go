package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned by Call while the breaker refuses requests.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// BreakerState represents the state of a circuit breaker
type BreakerState int

const (
	StateClosed   BreakerState = iota // Normal operation
	StateOpen                         // Circuit is open, requests fail immediately
	StateHalfOpen                     // Testing if the endpoint has recovered
)

// Breaker implements the circuit breaker pattern around a dial path.
// A flapping endpoint trips the breaker open so that reconnect triggers
// stop spending dial attempts until the reset timeout has passed.
type Breaker struct {
	name         string
	maxFailures  int           // Number of failures before opening circuit
	resetTimeout time.Duration // Time to wait before attempting half-open
	halfOpenMax  int           // Max requests in half-open state

	mu            sync.RWMutex
	state         BreakerState
	failureCount  int
	lastFailTime  time.Time
	successCount  int
	halfOpenCount int

	requestTotal int64
	failureTotal int64
}

// NewBreaker creates a new circuit breaker
func NewBreaker(name string, maxFailures int, resetTimeout time.Duration) *Breaker {
	return &Breaker{
		name:         name,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		halfOpenMax:  3, // Allow 3 requests in half-open state
		state:        StateClosed,
	}
}

// Call executes a function with circuit breaker protection
func (b *Breaker) Call(fn func() error) error {
	if !b.Allow() {
		return ErrBreakerOpen
	}

	err := fn()
	b.Record(err == nil)
	return err
}

// Allow reports whether a request should be attempted, transitioning
// from open to half-open once the reset timeout has elapsed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true

	case StateOpen:
		if time.Since(b.lastFailTime) >= b.resetTimeout {
			b.state = StateHalfOpen
			b.halfOpenCount = 1
			b.successCount = 0
			return true // Allow one request to test
		}
		return false

	case StateHalfOpen:
		if b.halfOpenCount < b.halfOpenMax {
			b.halfOpenCount++
			return true
		}
		return false // Too many requests in half-open, wait
	}

	return false
}

// Record records the result of a request
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requestTotal++

	if success {
		b.recordSuccess()
	} else {
		b.recordFailure()
	}
}

func (b *Breaker) recordSuccess() {
	switch b.state {
	case StateClosed:
		// Reset failure count on success
		b.failureCount = 0

	case StateHalfOpen:
		b.successCount++
		// If we have enough successes, close the circuit
		if b.successCount >= b.halfOpenMax {
			b.state = StateClosed
			b.failureCount = 0
			b.halfOpenCount = 0
			b.successCount = 0
		}
	}
}

func (b *Breaker) recordFailure() {
	b.failureTotal++
	b.lastFailTime = time.Now()

	switch b.state {
	case StateClosed:
		b.failureCount++
		if b.failureCount >= b.maxFailures {
			b.state = StateOpen
		}

	case StateHalfOpen:
		// Any failure in half-open immediately opens the circuit
		b.state = StateOpen
		b.halfOpenCount = 0
		b.successCount = 0
	}
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() BreakerState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Stats returns statistics about the circuit breaker
func (b *Breaker) Stats() (state BreakerState, requestTotal, failureTotal int64, failureRate float64) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	state = b.state
	requestTotal = b.requestTotal
	failureTotal = b.failureTotal

	if requestTotal > 0 {
		failureRate = float64(failureTotal) / float64(requestTotal) * 100.0
	}

	return
}

// Reset manually resets the circuit breaker to closed state
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failureCount = 0
	b.halfOpenCount = 0
	b.successCount = 0
	b.requestTotal = 0
	b.failureTotal = 0
}
