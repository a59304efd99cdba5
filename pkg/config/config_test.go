package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that DefaultConfig returns valid defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Server defaults
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Server.TLSEnabled {
		t.Error("Expected TLS disabled by default")
	}
	if cfg.Server.RequestTimeout() != 30*time.Second {
		t.Errorf("Expected 30s request timeout, got %v", cfg.Server.RequestTimeout())
	}

	// Database defaults
	if cfg.Database.Enabled {
		t.Error("Expected database disabled by default")
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Expected postgres driver, got %s", cfg.Database.Driver)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected default postgres port 5432, got %d", cfg.Database.Port)
	}

	// Engine defaults
	if cfg.Engine.SearchStep() != 10*time.Minute {
		t.Errorf("Expected 10m search step, got %v", cfg.Engine.SearchStep())
	}
	if cfg.Engine.Precision() != time.Second {
		t.Errorf("Expected 1s precision, got %v", cfg.Engine.Precision())
	}
	if cfg.Engine.ConjunctionSampling != "sunrise" {
		t.Errorf("Expected sunrise sampling, got %s", cfg.Engine.ConjunctionSampling)
	}
	if cfg.Ephemeris.Refraction {
		t.Error("Expected refraction disabled by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got: %v", err)
	}
}

// TestLoadNonExistentFile tests that Load returns default config when file doesn't exist.
func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("Expected no error for non-existent file, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected default config, got nil")
	}
	if cfg.Server.Port != "8080" {
		t.Error("Did not get default config for non-existent file")
	}
}

// TestLoadPartialConfig tests that fields missing from the file keep their defaults.
func TestLoadPartialConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "partial.json")
	data := `{"observer": {"name": "Berlin", "latitude": 52.473, "longitude": 13.403}, "engine": {"conjunction_sampling": "hourly"}}`
	if err := os.WriteFile(configPath, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Observer.Latitude != 52.473 || cfg.Observer.Name != "Berlin" {
		t.Errorf("Observer not loaded: %+v", cfg.Observer)
	}
	if cfg.Engine.ConjunctionSampling != "hourly" {
		t.Errorf("Expected hourly sampling, got %s", cfg.Engine.ConjunctionSampling)
	}
	if cfg.Engine.CacheSize != 1024 {
		t.Errorf("Expected default cache size to survive, got %d", cfg.Engine.CacheSize)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port to survive, got %s", cfg.Server.Port)
	}
}

// TestLoadInvalidJSON tests error handling for malformed JSON.
func TestLoadInvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.json")
	if err := os.WriteFile(configPath, []byte("{ invalid json }"), 0644); err != nil {
		t.Fatalf("Failed to write invalid config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid JSON, got nil")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("Expected parse error, got: %v", err)
	}
}

// TestSaveConfig tests saving configuration to file and loading it back.
func TestSaveConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "dir", "config.json")

	cfg := DefaultConfig()
	cfg.Server.Port = "9999"
	cfg.Observer.Name = "Test Save"
	cfg.Engine.ShowersFile = "/etc/nightsky/showers.yaml"

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if loaded.Server.Port != "9999" {
		t.Errorf("Expected port 9999, got %s", loaded.Server.Port)
	}
	if loaded.Observer.Name != "Test Save" {
		t.Errorf("Expected observer name 'Test Save', got %s", loaded.Observer.Name)
	}
	if loaded.Engine.ShowersFile != cfg.Engine.ShowersFile {
		t.Errorf("Expected showers file %s, got %s", cfg.Engine.ShowersFile, loaded.Engine.ShowersFile)
	}
}

// TestEnvironmentOverrides tests environment variable overrides.
func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("NIGHTSKY_PORT", "7777")
	t.Setenv("NIGHTSKY_DB_HOST", "env-db-host")
	t.Setenv("NIGHTSKY_DB_PASSWORD", "env-password")
	t.Setenv("NIGHTSKY_JWT_SECRET", "env-secret")
	t.Setenv("NIGHTSKY_VSOP87_DIR", "/srv/vsop87")
	t.Setenv("NIGHTSKY_LOG_LEVEL", "debug")

	configPath := filepath.Join(t.TempDir(), "config.json")
	testCfg := DefaultConfig()
	testCfg.Database.Password = "original-password"
	data, err := json.Marshal(testCfg)
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	tests := []struct {
		name, got, want string
	}{
		{"port", cfg.Server.Port, "7777"},
		{"db host", cfg.Database.Host, "env-db-host"},
		{"db password", cfg.Database.Password, "env-password"},
		{"jwt secret", cfg.Auth.JWTSecret, "env-secret"},
		{"vsop87 dir", cfg.Ephemeris.VSOP87Dir, "/srv/vsop87"},
		{"log level", cfg.Logging.Level, "debug"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %q from env, got %q", tt.name, tt.want, tt.got)
		}
	}

	// Overrides also apply when there is no file
	cfg, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}
	if cfg.Server.Port != "7777" {
		t.Errorf("Expected port 7777 from env without a file, got %s", cfg.Server.Port)
	}
}

// TestValidate checks that unusable values are reported.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero cache", func(c *Config) { c.Engine.CacheSize = 0 }, "cache_size"},
		{"zero step", func(c *Config) { c.Engine.SearchStepSeconds = 0 }, "search_step_seconds"},
		{"precision above step", func(c *Config) { c.Engine.PrecisionSeconds = 900 }, "precision_seconds"},
		{"unknown sampling", func(c *Config) { c.Engine.ConjunctionSampling = "daily" }, "conjunction_sampling"},
		{"missing vsop87", func(c *Config) { c.Ephemeris.VSOP87Dir = "" }, "vsop87_dir"},
		{"lunisolar without vsop87", func(c *Config) {
			c.Ephemeris.VSOP87Dir = ""
			c.Ephemeris.LunisolarOnly = true
		}, ""},
		{"bad latitude", func(c *Config) { c.Observer.Latitude = 91 }, "observer.latitude"},
		{"bad longitude", func(c *Config) { c.Observer.Longitude = -181 }, "observer.longitude"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error mentioning %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestServerAddress(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: "9000"}
	if s.Address() != "127.0.0.1:9000" {
		t.Errorf("Address() = %s", s.Address())
	}
	if (AuthConfig{TokenHours: 2}).TokenDuration() != 2*time.Hour {
		t.Error("TokenDuration mismatch")
	}
}
