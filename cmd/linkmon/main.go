package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hassaanmaqsood/autolink"
	"github.com/hassaanmaqsood/autolink/internal/config"
	"github.com/hassaanmaqsood/autolink/internal/link"
	"github.com/hassaanmaqsood/autolink/internal/observability"
	"github.com/hassaanmaqsood/autolink/internal/resilience"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger; each daemon run gets a fresh
	// correlation ID so restarts are distinguishable in aggregated logs
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.WithCorrelationID("")

	logger.Info().
		Str("port", cfg.Port).
		Str("link_kind", cfg.LinkKind).
		Str("link_name", cfg.LinkName).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Link monitor starting")

	// Build the supervised link
	lnk, healthCheck, err := buildLink(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build link")
	}
	defer lnk.Close()

	// Build the reconnect supervisor and wire it to the link
	metrics := observability.NewLinkMetrics(cfg.LinkName)
	sup := newSupervisor(cfg, lnk, metrics)

	// Kick off the first connection attempt
	if lnk.StartReconnect() {
		sup.OnAttemptStarted()
	}

	// Run the cooperative poll loop
	pollCtx, stopPolling := context.WithCancel(context.Background())
	defer stopPolling()
	go runPollLoop(pollCtx, sup, metrics, time.Duration(cfg.PollInterval)*time.Millisecond)

	// Create HTTP server
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness endpoint
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		cfg.LinkName: healthCheck,
	}))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down...")

	stopPolling()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}

// buildLink constructs the configured link and its readiness check.
func buildLink(cfg *config.Config) (link.Link, observability.HealthCheckFunc, error) {
	switch cfg.LinkKind {
	case "ws":
		breaker := resilience.NewBreaker(
			cfg.LinkName,
			cfg.BreakerMaxFailures,
			time.Duration(cfg.BreakerResetTimeout)*time.Second,
		)
		l := link.NewWSLink(cfg.LinkName, cfg.LinkURL, time.Duration(cfg.DialTimeout)*time.Second, breaker)
		check := func(ctx context.Context) (bool, error) {
			if !l.IsConnected() {
				return false, fmt.Errorf("websocket link is down")
			}
			return true, nil
		}
		return l, check, nil

	case "grpc":
		l, err := link.NewGRPCLink(cfg.LinkName, cfg.GRPCTarget)
		if err != nil {
			return nil, nil, err
		}
		return l, l.HealthCheck, nil

	default:
		return nil, nil, fmt.Errorf("unsupported link kind %q", cfg.LinkKind)
	}
}

// newSupervisor builds a supervisor wired to the link and the logger.
func newSupervisor(cfg *config.Config, lnk link.Link, metrics *observability.LinkMetrics) *autolink.Supervisor {
	logger := observability.WithLink(cfg.LinkName)

	sup := autolink.New(cfg.LinkName)
	sup.SetMaxAttempts(cfg.ReconnectMaxAttempts)
	sup.SetReconnectDelay(time.Duration(cfg.ReconnectDelay) * time.Millisecond)
	sup.SetConnectionTimeout(time.Duration(cfg.ConnectionTimeout) * time.Millisecond)

	sup.SetStatusFunc(lnk.IsConnected)
	sup.SetTriggerFunc(func() bool {
		metrics.RecordAttempt()
		ok := lnk.StartReconnect()
		if !ok {
			metrics.RecordTriggerFailure()
		}
		return ok
	})
	sup.SetLogFunc(func(msg string) {
		logger.Info().Msg(msg)
	})
	sup.SetErrorFunc(func(msg string) {
		logger.Error().Msg(msg)
	})

	return sup
}

// runPollLoop drives the supervisor from a single goroutine, the one
// cooperative call site the supervisor expects, and mirrors observed
// state into metrics.
func runPollLoop(ctx context.Context, sup *autolink.Supervisor, metrics *observability.LinkMetrics, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	wasConnected := sup.WasConnected()
	wasEnabled := sup.Enabled()
	metrics.RecordSupervisorEnabled(wasEnabled)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			sup.Poll()
			metrics.RecordPoll(start)

			if connected := sup.WasConnected(); connected != wasConnected {
				metrics.RecordLinkState(connected)
				wasConnected = connected
			}
			if enabled := sup.Enabled(); enabled != wasEnabled {
				metrics.RecordSupervisorEnabled(enabled)
				if !enabled {
					metrics.RecordExhaustion()
				}
				wasEnabled = enabled
			}
		}
	}
}
