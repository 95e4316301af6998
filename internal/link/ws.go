package link

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/hassaanmaqsood/autolink/internal/observability"
	"github.com/hassaanmaqsood/autolink/internal/resilience"
)

// WSLink is a WebSocket link. Dialing happens in a background goroutine
// so that StartReconnect only initiates the attempt; a read pump drops
// the connected flag as soon as the peer goes away. The dial path is
// guarded by a circuit breaker so a flapping endpoint stops consuming
// dial attempts while the breaker is open.
type WSLink struct {
	name    string
	url     string
	dialer  *websocket.Dialer
	breaker *resilience.Breaker
	logger  zerolog.Logger

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	dialing   bool
	closed    bool
}

// NewWSLink creates a WebSocket link for the given endpoint. The
// breaker is optional; a nil breaker leaves the dial path unguarded.
func NewWSLink(name, url string, dialTimeout time.Duration, breaker *resilience.Breaker) *WSLink {
	return &WSLink{
		name: name,
		url:  url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: dialTimeout,
		},
		breaker: breaker,
		logger:  observability.WithLink(name),
	}
}

// Name returns the link's label.
func (l *WSLink) Name() string {
	return l.name
}

// IsConnected reports whether the WebSocket connection is up.
func (l *WSLink) IsConnected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.connected
}

// StartReconnect spawns a dial attempt. It refuses to overlap an
// in-flight dial and refuses while the breaker is open or the link is
// closed.
func (l *WSLink) StartReconnect() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || l.dialing || l.connected {
		return false
	}
	if l.breaker != nil && !l.breaker.Allow() {
		l.logger.Warn().Msg("dial refused: circuit breaker open")
		return false
	}

	l.dialing = true
	go l.dial()
	return true
}

func (l *WSLink) dial() {
	// Each dial attempt gets its own ID so retries are distinguishable
	// in the logs.
	logger := l.logger.With().Str("attempt_id", observability.NewCorrelationID()).Logger()

	conn, _, err := l.dialer.Dial(l.url, nil)

	if l.breaker != nil {
		l.breaker.Record(err == nil)
		observability.UpdateBreakerState(l.name, int(l.breaker.State()))
		if err != nil {
			observability.IncrementBreakerFailures(l.name)
		}
	}

	l.mu.Lock()
	l.dialing = false
	if err != nil {
		l.mu.Unlock()
		logger.Warn().Err(err).Str("url", l.url).Msg("dial failed")
		return
	}
	if l.closed {
		l.mu.Unlock()
		conn.Close()
		return
	}
	l.conn = conn
	l.connected = true
	l.mu.Unlock()

	logger.Info().Str("url", l.url).Msg("connected")
	go l.readPump(conn)
}

// readPump drains the connection until it errors, then drops the
// connected flag so the next status poll observes the disconnect.
func (l *WSLink) readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l.logger.Warn().Err(err).Msg("connection lost")
			}
			break
		}
	}

	l.mu.Lock()
	if l.conn == conn {
		l.connected = false
		l.conn = nil
	}
	l.mu.Unlock()

	conn.Close()
}

// Close tears down the link. Safe to call multiple times.
func (l *WSLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	l.connected = false

	if l.conn != nil {
		err := l.conn.Close()
		l.conn = nil
		if err != nil {
			return fmt.Errorf("failed to close websocket: %w", err)
		}
	}
	return nil
}
