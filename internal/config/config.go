package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the link monitor daemon
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Link configuration
	LinkKind   string `envconfig:"LINK_KIND" default:"ws"`     // Link transport: ws or grpc
	LinkName   string `envconfig:"LINK_NAME" default:"Uplink"` // Label used in log/error messages
	LinkURL    string `envconfig:"LINK_URL" default:""`        // WebSocket endpoint (required for ws)
	GRPCTarget string `envconfig:"GRPC_TARGET" default:""`     // gRPC target address (required for grpc)

	// Supervisor configuration
	PollInterval         int `envconfig:"POLL_INTERVAL" default:"250"`        // Poll loop interval in milliseconds
	ReconnectMaxAttempts int `envconfig:"RECONNECT_MAX_ATTEMPTS" default:"5"` // Maximum reconnection attempts
	ReconnectDelay       int `envconfig:"RECONNECT_DELAY" default:"30000"`    // Delay between attempts in milliseconds
	ConnectionTimeout    int `envconfig:"CONNECTION_TIMEOUT" default:"15000"` // Connection timeout in milliseconds (tracked, not enforced)

	// Dial configuration
	DialTimeout int `envconfig:"DIAL_TIMEOUT" default:"10"` // WebSocket dial timeout in seconds

	// Circuit breaker configuration (guards the dial path)
	BreakerMaxFailures  int `envconfig:"BREAKER_MAX_FAILURES" default:"5"`   // Dial failures before opening circuit
	BreakerResetTimeout int `envconfig:"BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *Config) validate() error {
	switch cfg.LinkKind {
	case "ws":
		if cfg.LinkURL == "" {
			return fmt.Errorf("LINK_URL is required when LINK_KIND is ws")
		}
	case "grpc":
		if cfg.GRPCTarget == "" {
			return fmt.Errorf("GRPC_TARGET is required when LINK_KIND is grpc")
		}
	default:
		return fmt.Errorf("unsupported LINK_KIND %q (expected ws or grpc)", cfg.LinkKind)
	}

	if cfg.ReconnectMaxAttempts <= 0 {
		return fmt.Errorf("RECONNECT_MAX_ATTEMPTS must be positive, got %d", cfg.ReconnectMaxAttempts)
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %d", cfg.PollInterval)
	}

	return nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
