package link

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hassaanmaqsood/autolink/internal/resilience"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newWSServer starts a WebSocket server that holds connections open
// until the client goes away or the server is closed.
func newWSServer(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestWSLink_ConnectAndDisconnect(t *testing.T) {
	srv := newWSServer(t)
	defer srv.Close()

	l := NewWSLink("test", wsURL(srv), 5*time.Second, nil)
	defer l.Close()

	if l.IsConnected() {
		t.Error("Expected new link to start disconnected")
	}

	if !l.StartReconnect() {
		t.Fatal("Expected StartReconnect to initiate a dial")
	}

	if !waitFor(t, 2*time.Second, l.IsConnected) {
		t.Fatal("Expected link to connect")
	}

	// Server going away should drop the connected flag
	srv.Close()

	if !waitFor(t, 2*time.Second, func() bool { return !l.IsConnected() }) {
		t.Error("Expected link to observe disconnect after server close")
	}
}

func TestWSLink_StartReconnectWhileConnected(t *testing.T) {
	srv := newWSServer(t)
	defer srv.Close()

	l := NewWSLink("test", wsURL(srv), 5*time.Second, nil)
	defer l.Close()

	if !l.StartReconnect() {
		t.Fatal("Expected StartReconnect to initiate a dial")
	}
	if !waitFor(t, 2*time.Second, l.IsConnected) {
		t.Fatal("Expected link to connect")
	}

	if l.StartReconnect() {
		t.Error("Expected StartReconnect to refuse while connected")
	}
}

func TestWSLink_StartReconnectAfterClose(t *testing.T) {
	srv := newWSServer(t)
	defer srv.Close()

	l := NewWSLink("test", wsURL(srv), 5*time.Second, nil)

	if err := l.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("Expected repeated Close to succeed, got %v", err)
	}

	if l.StartReconnect() {
		t.Error("Expected StartReconnect to refuse after Close")
	}
}

func TestWSLink_BreakerOpenRefusesDial(t *testing.T) {
	breaker := resilience.NewBreaker("test", 1, 1*time.Hour)
	breaker.Record(false) // trip it open

	l := NewWSLink("test", "ws://127.0.0.1:1/ws", 1*time.Second, breaker)
	defer l.Close()

	if l.StartReconnect() {
		t.Error("Expected StartReconnect to refuse while breaker is open")
	}
}

func TestWSLink_DialFailureTripsBreaker(t *testing.T) {
	breaker := resilience.NewBreaker("test", 1, 1*time.Hour)

	// Port 1 is essentially never listening
	l := NewWSLink("test", "ws://127.0.0.1:1/ws", 1*time.Second, breaker)
	defer l.Close()

	if !l.StartReconnect() {
		t.Fatal("Expected StartReconnect to initiate a dial")
	}

	if !waitFor(t, 3*time.Second, func() bool { return breaker.State() == resilience.StateOpen }) {
		t.Error("Expected dial failure to trip the breaker open")
	}
	if l.IsConnected() {
		t.Error("Expected link to remain disconnected")
	}
}
