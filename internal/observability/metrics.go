package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Link state metrics
	linkUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "linkmon_link_up",
		Help: "Whether the link is currently connected (1) or not (0)",
	}, []string{"link"})

	supervisorEnabled = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "linkmon_supervisor_enabled",
		Help: "Whether auto-reconnect is currently enabled (1) or exhausted/disabled (0)",
	}, []string{"link"})

	// Reconnect metrics
	reconnectAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkmon_reconnect_attempts_total",
		Help: "Total number of reconnect attempts triggered",
	}, []string{"link"})

	triggerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkmon_trigger_failures_total",
		Help: "Total number of reconnect attempts that failed to start",
	}, []string{"link"})

	exhaustions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkmon_exhaustions_total",
		Help: "Total number of times the attempt budget was exhausted",
	}, []string{"link"})

	statusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkmon_status_changes_total",
		Help: "Total number of observed connection state transitions",
	}, []string{"link", "to"}) // to: "connected" or "disconnected"

	// Poll loop metrics
	pollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "linkmon_poll_duration_seconds",
		Help:    "Duration of one supervisor poll cycle in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})

	// Circuit breaker metrics
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "linkmon_breaker_state",
		Help: "Dial circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"link"})

	breakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkmon_breaker_failures_total",
		Help: "Total dial circuit breaker failures",
	}, []string{"link"})
)

// LinkMetrics tracks metrics for a single supervised link
type LinkMetrics struct {
	link string
}

// NewLinkMetrics creates a metrics tracker for the named link
func NewLinkMetrics(link string) *LinkMetrics {
	return &LinkMetrics{link: link}
}

// RecordLinkState records the current connection state
func (m *LinkMetrics) RecordLinkState(connected bool) {
	value := 0.0
	to := "disconnected"
	if connected {
		value = 1.0
		to = "connected"
	}
	linkUp.WithLabelValues(m.link).Set(value)
	statusChanges.WithLabelValues(m.link, to).Inc()
}

// RecordSupervisorEnabled records whether auto-reconnect is enabled
func (m *LinkMetrics) RecordSupervisorEnabled(enabled bool) {
	value := 0.0
	if enabled {
		value = 1.0
	}
	supervisorEnabled.WithLabelValues(m.link).Set(value)
}

// RecordAttempt records one triggered reconnect attempt
func (m *LinkMetrics) RecordAttempt() {
	reconnectAttempts.WithLabelValues(m.link).Inc()
}

// RecordTriggerFailure records a reconnect attempt that failed to start
func (m *LinkMetrics) RecordTriggerFailure() {
	triggerFailures.WithLabelValues(m.link).Inc()
}

// RecordExhaustion records exhaustion of the attempt budget
func (m *LinkMetrics) RecordExhaustion() {
	exhaustions.WithLabelValues(m.link).Inc()
}

// RecordPoll records the duration of one poll cycle
func (m *LinkMetrics) RecordPoll(start time.Time) {
	pollDuration.Observe(time.Since(start).Seconds())
}

// UpdateBreakerState updates the dial circuit breaker state metric
func UpdateBreakerState(link string, state int) {
	breakerState.WithLabelValues(link).Set(float64(state))
}

// IncrementBreakerFailures increments the dial circuit breaker failure counter
func IncrementBreakerFailures(link string) {
	breakerFailures.WithLabelValues(link).Inc()
}
