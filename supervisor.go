// Package autolink supervises automatic reconnection for a single
// long-lived connection. The Supervisor does not manage any transport
// itself; the host supplies callbacks for triggering a reconnect,
// reporting connection status, and sinking log/error messages, and
// drives the Supervisor by calling Poll from its scheduling loop.
//
// The Supervisor is not safe for concurrent use. It is designed for a
// single cooperative call site: one goroutine calls Poll (and the other
// methods) and the callbacks run inline within that call.
package autolink

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

// Default configuration values applied by New
const (
	DefaultMaxAttempts       = 5
	DefaultConnectionTimeout = 15 * time.Second
	DefaultReconnectDelay    = 30 * time.Second
)

// TriggerFunc attempts to initiate a reconnection. It returns true if
// the attempt was successfully initiated (not necessarily completed),
// false if it could not even start.
type TriggerFunc func() bool

// StatusFunc reports the current connection state. It is polled every
// cycle and must be cheap and non-blocking.
type StatusFunc func() bool

// LogFunc receives informational messages.
type LogFunc func(message string)

// ErrorFunc receives error messages.
type ErrorFunc func(message string)

// Supervisor tracks connection state transitions for one connection and
// decides when to trigger a reconnect attempt, bounded by a maximum
// attempt count and a minimum delay between attempts. Once the attempt
// budget is exhausted while still disconnected, the Supervisor disables
// itself until Enable is called again.
type Supervisor struct {
	name string

	enabled      bool
	wasConnected bool

	lastAttempt     time.Time
	connectionStart time.Time
	attempts        int

	maxAttempts       int
	connectionTimeout time.Duration
	reconnectDelay    time.Duration

	clock clock.Clock

	trigger TriggerFunc
	status  StatusFunc
	logf    LogFunc
	errorf  ErrorFunc
}

// New creates a Supervisor for the named connection with default
// thresholds. The name is used only in log and error message text.
func New(name string) *Supervisor {
	if name == "" {
		name = "Connection"
	}
	return &Supervisor{
		name:              name,
		enabled:           true,
		maxAttempts:       DefaultMaxAttempts,
		connectionTimeout: DefaultConnectionTimeout,
		reconnectDelay:    DefaultReconnectDelay,
		clock:             clock.New(),
	}
}

// SetMaxAttempts sets the ceiling on reconnect attempts before the
// Supervisor disables itself.
func (s *Supervisor) SetMaxAttempts(maxAttempts int) {
	s.maxAttempts = maxAttempts
}

// SetConnectionTimeout sets the per-attempt connection timeout. The
// value is tracked alongside attempt start times but not enforced; the
// host callback is responsible for detecting attempt-level failure.
func (s *Supervisor) SetConnectionTimeout(timeout time.Duration) {
	s.connectionTimeout = timeout
}

// SetReconnectDelay sets the minimum elapsed time required between
// consecutive reconnect attempts.
func (s *Supervisor) SetReconnectDelay(delay time.Duration) {
	s.reconnectDelay = delay
}

// SetName sets the connection label used in message text.
func (s *Supervisor) SetName(name string) {
	s.name = name
}

// SetClock overrides the time source. If c is nil, the real system
// clock is used. Intended for deterministic tests.
func (s *Supervisor) SetClock(c clock.Clock) {
	if c == nil {
		c = clock.New()
	}
	s.clock = c
}

// SetTriggerFunc sets the callback that initiates a reconnection.
func (s *Supervisor) SetTriggerFunc(fn TriggerFunc) {
	s.trigger = fn
}

// SetStatusFunc sets the callback that reports connection state.
func (s *Supervisor) SetStatusFunc(fn StatusFunc) {
	s.status = fn
}

// SetLogFunc sets the informational message sink.
func (s *Supervisor) SetLogFunc(fn LogFunc) {
	s.logf = fn
}

// SetErrorFunc sets the error message sink.
func (s *Supervisor) SetErrorFunc(fn ErrorFunc) {
	s.errorf = fn
}

// Enable permits reconnection attempts and resets the attempt counter.
// Idempotent.
func (s *Supervisor) Enable() {
	s.enabled = true
	s.attempts = 0
	s.log(s.name + " auto-reconnect enabled")
}

// Disable prevents future reconnection attempts. It does not reset the
// attempt counter and does not interrupt an attempt already delegated
// to the host. Idempotent.
func (s *Supervisor) Disable() {
	s.enabled = false
	s.log(s.name + " auto-reconnect disabled")
}

// Reset clears the attempt counter and both timestamps. It does not
// change whether the Supervisor is enabled.
func (s *Supervisor) Reset() {
	s.attempts = 0
	s.lastAttempt = time.Time{}
	s.connectionStart = time.Time{}
}

// OnAttemptStarted records the start of a reconnect attempt. The host
// calls this when it initiates an attempt on its own, outside of Poll.
func (s *Supervisor) OnAttemptStarted() {
	now := s.clock.Now()
	s.lastAttempt = now
	s.connectionStart = now
}

// OnStatusChanged handles an observed connection state transition. Poll
// calls this when the polled status differs from the last observation;
// the host may also call it directly on transitions it detects itself.
func (s *Supervisor) OnStatusChanged(connected bool) {
	if connected && !s.wasConnected {
		// Just connected
		s.attempts = 0
		s.connectionStart = time.Time{}
		s.log(s.name + " connected successfully")
	} else if !connected && s.wasConnected {
		// Just disconnected
		if s.enabled {
			s.lastAttempt = s.clock.Now()
			s.log(s.name + " disconnected, will attempt reconnect")
		}
	}
	s.wasConnected = connected
}

// Poll runs one iteration of the reconnect decision loop. Call it
// regularly from the host's scheduling loop.
//
// If either the status or trigger callback is unset, Poll is a no-op.
// Otherwise it observes the current connection state, drives
// OnStatusChanged on a transition, and triggers a reconnect attempt
// when disconnected, enabled, under the attempt budget, and past the
// reconnect delay since the last attempt. Exhaustion of the budget is
// checked after the trigger logic, so the attempt that consumes the
// last slot and the self-disable can land in the same call.
func (s *Supervisor) Poll() {
	if s.status == nil || s.trigger == nil {
		return // callbacks not set
	}

	connected := s.status()

	if connected != s.wasConnected {
		s.OnStatusChanged(connected)
	}

	if !connected && s.enabled &&
		s.attempts < s.maxAttempts &&
		s.clock.Now().Sub(s.lastAttempt) > s.reconnectDelay {

		now := s.clock.Now()
		s.attempts++
		s.lastAttempt = now
		s.connectionStart = now

		s.log(fmt.Sprintf("%s reconnecting (%d/%d)", s.name, s.attempts, s.maxAttempts))

		// A trigger that fails to start still consumes an attempt slot
		// and resets the delay window.
		if !s.trigger() {
			s.reportError(s.name + " reconnect attempt failed to start")
		}
	}

	// Stop trying after max attempts
	if s.attempts >= s.maxAttempts && !connected && s.enabled {
		s.enabled = false
		s.reportError(s.name + " auto-reconnect disabled after max attempts")
	}
}

// Enabled reports whether reconnection attempts are currently permitted.
func (s *Supervisor) Enabled() bool {
	return s.enabled
}

// Attempts returns the number of attempts made since the last Enable or
// Reset.
func (s *Supervisor) Attempts() int {
	return s.attempts
}

// MaxAttempts returns the configured attempt ceiling.
func (s *Supervisor) MaxAttempts() int {
	return s.maxAttempts
}

// LastAttemptTime returns the time of the last reconnect trigger. The
// zero time means no attempt has been made.
func (s *Supervisor) LastAttemptTime() time.Time {
	return s.lastAttempt
}

// WasConnected returns the most recently observed connection state.
func (s *Supervisor) WasConnected() bool {
	return s.wasConnected
}

func (s *Supervisor) log(message string) {
	if s.logf != nil {
		s.logf(message)
	}
}

func (s *Supervisor) reportError(message string) {
	if s.errorf != nil {
		s.errorf(message)
	}
}
