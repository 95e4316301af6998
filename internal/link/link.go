// Package link provides transport implementations supervised by the
// autolink package. A Link supplies the supervisor's status and trigger
// callbacks: IsConnected backs the status poll and StartReconnect backs
// the reconnect trigger.
package link

// Link is a single supervised network connection.
type Link interface {
	// Name returns the link's label.
	Name() string

	// IsConnected reports the current connection state. It must be
	// cheap and non-blocking; it is polled every supervisor cycle.
	IsConnected() bool

	// StartReconnect initiates a reconnection attempt without blocking.
	// It returns true if the attempt was initiated, false if it could
	// not even start (already dialing, closed, or breaker open).
	StartReconnect() bool

	// Close tears down the link. Safe to call multiple times.
	Close() error
}
