package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	os.Setenv("LINK_URL", "ws://localhost:9000/link")
	defer os.Unsetenv("LINK_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.LinkURL != "ws://localhost:9000/link" {
		t.Errorf("Expected LinkURL 'ws://localhost:9000/link', got '%s'", cfg.LinkURL)
	}
}

func TestLoad_MissingLinkURL(t *testing.T) {
	os.Unsetenv("LINK_URL")
	os.Unsetenv("LINK_KIND")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when LINK_URL is missing for ws link")
	}
}

func TestLoad_GRPCKind(t *testing.T) {
	os.Setenv("LINK_KIND", "grpc")
	os.Setenv("GRPC_TARGET", "localhost:50051")
	defer os.Unsetenv("LINK_KIND")
	defer os.Unsetenv("GRPC_TARGET")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.GRPCTarget != "localhost:50051" {
		t.Errorf("Expected GRPCTarget 'localhost:50051', got '%s'", cfg.GRPCTarget)
	}
}

func TestLoad_GRPCKindMissingTarget(t *testing.T) {
	os.Setenv("LINK_KIND", "grpc")
	os.Unsetenv("GRPC_TARGET")
	defer os.Unsetenv("LINK_KIND")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when GRPC_TARGET is missing for grpc link")
	}
}

func TestLoad_UnsupportedKind(t *testing.T) {
	os.Setenv("LINK_KIND", "carrier-pigeon")
	defer os.Unsetenv("LINK_KIND")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for unsupported LINK_KIND")
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("LINK_URL", "ws://localhost:9000/link")
	defer os.Unsetenv("LINK_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}

	if cfg.LinkKind != "ws" {
		t.Errorf("Expected default LinkKind 'ws', got '%s'", cfg.LinkKind)
	}

	if cfg.LinkName != "Uplink" {
		t.Errorf("Expected default LinkName 'Uplink', got '%s'", cfg.LinkName)
	}

	if cfg.PollInterval != 250 {
		t.Errorf("Expected default PollInterval 250, got %d", cfg.PollInterval)
	}

	if cfg.ReconnectMaxAttempts != 5 {
		t.Errorf("Expected default ReconnectMaxAttempts 5, got %d", cfg.ReconnectMaxAttempts)
	}

	if cfg.ReconnectDelay != 30000 {
		t.Errorf("Expected default ReconnectDelay 30000, got %d", cfg.ReconnectDelay)
	}

	if cfg.ConnectionTimeout != 15000 {
		t.Errorf("Expected default ConnectionTimeout 15000, got %d", cfg.ConnectionTimeout)
	}

	if cfg.DialTimeout != 10 {
		t.Errorf("Expected default DialTimeout 10, got %d", cfg.DialTimeout)
	}
}

func TestLoad_BreakerDefaults(t *testing.T) {
	os.Setenv("LINK_URL", "ws://localhost:9000/link")
	defer os.Unsetenv("LINK_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.BreakerMaxFailures != 5 {
		t.Errorf("Expected default BreakerMaxFailures 5, got %d", cfg.BreakerMaxFailures)
	}

	if cfg.BreakerResetTimeout != 30 {
		t.Errorf("Expected default BreakerResetTimeout 30, got %d", cfg.BreakerResetTimeout)
	}
}

func TestLoad_InvalidMaxAttempts(t *testing.T) {
	os.Setenv("LINK_URL", "ws://localhost:9000/link")
	os.Setenv("RECONNECT_MAX_ATTEMPTS", "0")
	defer os.Unsetenv("LINK_URL")
	defer os.Unsetenv("RECONNECT_MAX_ATTEMPTS")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for non-positive RECONNECT_MAX_ATTEMPTS")
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("LINK_URL", "ws://localhost:9000/link")
	defer os.Unsetenv("LINK_URL")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.LinkURL != "ws://localhost:9000/link" {
		t.Errorf("Expected LinkURL 'ws://localhost:9000/link', got '%s'", cfg.LinkURL)
	}
}

func TestLoad_ObservabilityDefaults(t *testing.T) {
	os.Setenv("LINK_URL", "ws://localhost:9000/link")
	os.Unsetenv("LOG_LEVEL")
	defer os.Unsetenv("LINK_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.LogPretty {
		t.Error("Expected default LogPretty false, got true")
	}

	if !cfg.MetricsEnabled {
		t.Error("Expected default MetricsEnabled true, got false")
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_KEY", "test-value")
	defer os.Unsetenv("TEST_KEY")

	value := GetEnv("TEST_KEY", "default")
	if value != "test-value" {
		t.Errorf("Expected 'test-value', got '%s'", value)
	}

	value = GetEnv("NON_EXISTENT_KEY", "default")
	if value != "default" {
		t.Errorf("Expected 'default', got '%s'", value)
	}
}
