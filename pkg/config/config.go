package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the complete application configuration.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Observer  ObserverConfig  `json:"observer"`
	Ephemeris EphemerisConfig `json:"ephemeris"`
	Engine    EngineConfig    `json:"engine"`
	Auth      AuthConfig      `json:"auth"`
	Logging   LoggingConfig   `json:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port string `json:"port"`

	// Host is the server bind address (default: "0.0.0.0")
	Host string `json:"host"`

	// TLSEnabled determines if HTTPS should be used
	TLSEnabled bool `json:"tls_enabled"`

	// TLSCertFile is the path to the TLS certificate
	TLSCertFile string `json:"tls_cert_file"`

	// TLSKeyFile is the path to the TLS private key
	TLSKeyFile string `json:"tls_key_file"`

	// RequestTimeoutSeconds bounds a single event computation
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`

	// RateLimitPerSecond is the sustained request rate allowed per client IP.
	// 0 disables rate limiting.
	RateLimitPerSecond float64 `json:"rate_limit_per_second"`

	// RateLimitBurst is the number of requests a client may burst above the rate
	RateLimitBurst int `json:"rate_limit_burst"`

	// CORSOrigins lists the allowed browser origins
	CORSOrigins []string `json:"cors_origins"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	// Enabled turns on persistence of sites, users and event snapshots.
	// The public event API works without a database.
	Enabled bool `json:"enabled"`

	// Driver is the database driver (postgres)
	Driver string `json:"driver"`

	// Host is the database server hostname
	Host string `json:"host"`

	// Port is the database server port
	Port int `json:"port"`

	// Database is the database name
	Database string `json:"database"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns"`
}

// ObserverConfig is the default observing site used by the terminal
// clients when no coordinates are given.
type ObserverConfig struct {
	// Name is a friendly identifier for this observer location
	Name string `json:"name"`

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64 `json:"latitude"`

	// Longitude in decimal degrees (-180 to +180)
	Longitude float64 `json:"longitude"`

	// Elevation in meters above sea level
	Elevation float64 `json:"elevation"`

	// TimeZone is the IANA timezone name (e.g., "Europe/Berlin").
	// Zones are resolved from the coordinates; this one only covers
	// coordinates without a zone, such as open ocean.
	TimeZone string `json:"timezone"`
}

// EphemerisConfig selects and tunes the position provider.
type EphemerisConfig struct {
	// VSOP87Dir is the directory holding the VSOP87B planet files
	VSOP87Dir string `json:"vsop87_dir"`

	// Refraction applies standard atmospheric refraction to altitudes.
	// Off by default so that rise and set use the geometric horizon.
	Refraction bool `json:"refraction"`

	// LunisolarOnly skips the planet files and positions only the Sun and Moon.
	// Planets are then reported as diagnostics.
	LunisolarOnly bool `json:"lunisolar_only"`
}

// EngineConfig tunes the event computation.
type EngineConfig struct {
	// CacheSize is the number of (site, date) results kept in memory
	CacheSize int `json:"cache_size"`

	// SearchStepSeconds is the coarse sampling interval of the horizon search
	SearchStepSeconds int `json:"search_step_seconds"`

	// PrecisionSeconds is the resolution of reported crossing instants
	PrecisionSeconds int `json:"precision_seconds"`

	// ConjunctionSampling is "sunrise" (test at the Sun's rising instants)
	// or "hourly"
	ConjunctionSampling string `json:"conjunction_sampling"`

	// ShowersFile overrides the built-in meteor shower calendar (YAML)
	ShowersFile string `json:"showers_file"`
}

// AuthConfig contains API authentication settings.
type AuthConfig struct {
	// JWTSecret signs API tokens (should be loaded from environment)
	JWTSecret string `json:"jwt_secret"`

	// TokenHours is the lifetime of an issued token
	TokenHours int `json:"token_hours"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	// Level is debug, info, warn or error
	Level string `json:"level"`

	// JSON selects JSON output instead of text
	JSON bool `json:"json"`
}

// Load reads configuration from a JSON file.
// If the file doesn't exist, returns a default configuration.
// Values missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.applyEnvironmentOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvironmentOverrides()

	return cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                  "8080",
			Host:                  "0.0.0.0",
			TLSEnabled:            false,
			RequestTimeoutSeconds: 30,
			RateLimitPerSecond:    5,
			RateLimitBurst:        10,
			CORSOrigins:           []string{"*"},
		},
		Database: DatabaseConfig{
			Enabled:      false,
			Driver:       "postgres",
			Host:         "localhost",
			Port:         5432,
			Database:     "nightsky",
			Username:     "nightsky",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Observer: ObserverConfig{
			Name:      "Primary Observer",
			Latitude:  0.0,
			Longitude: 0.0,
			Elevation: 0.0,
		},
		Ephemeris: EphemerisConfig{
			VSOP87Dir: "data/vsop87",
		},
		Engine: EngineConfig{
			CacheSize:           1024,
			SearchStepSeconds:   600,
			PrecisionSeconds:    1,
			ConjunctionSampling: "sunrise",
		},
		Auth: AuthConfig{
			TokenHours: 24,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports configuration values the engine cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Engine.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("engine.cache_size must be positive, got %d", c.Engine.CacheSize))
	}
	if c.Engine.SearchStepSeconds <= 0 {
		errs = append(errs, fmt.Errorf("engine.search_step_seconds must be positive, got %d", c.Engine.SearchStepSeconds))
	}
	if c.Engine.PrecisionSeconds <= 0 || c.Engine.PrecisionSeconds > c.Engine.SearchStepSeconds {
		errs = append(errs, fmt.Errorf("engine.precision_seconds must be in (0, search_step_seconds], got %d", c.Engine.PrecisionSeconds))
	}
	switch strings.ToLower(c.Engine.ConjunctionSampling) {
	case "", "sunrise", "hourly":
	default:
		errs = append(errs, fmt.Errorf("engine.conjunction_sampling must be sunrise or hourly, got %q", c.Engine.ConjunctionSampling))
	}
	if !c.Ephemeris.LunisolarOnly && c.Ephemeris.VSOP87Dir == "" {
		errs = append(errs, errors.New("ephemeris.vsop87_dir is required unless lunisolar_only is set"))
	}
	if c.Observer.Latitude < -90 || c.Observer.Latitude > 90 {
		errs = append(errs, fmt.Errorf("observer.latitude %v outside [-90, 90]", c.Observer.Latitude))
	}
	if c.Observer.Longitude < -180 || c.Observer.Longitude > 180 {
		errs = append(errs, fmt.Errorf("observer.longitude %v outside [-180, 180]", c.Observer.Longitude))
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SearchStep returns the horizon search sampling interval.
func (e EngineConfig) SearchStep() time.Duration {
	return time.Duration(e.SearchStepSeconds) * time.Second
}

// Precision returns the horizon search resolution.
func (e EngineConfig) Precision() time.Duration {
	return time.Duration(e.PrecisionSeconds) * time.Second
}

// RequestTimeout returns the per-request computation bound.
func (s ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// Address returns host:port for the listener.
func (s ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

// TokenDuration returns the lifetime of issued API tokens.
func (a AuthConfig) TokenDuration() time.Duration {
	return time.Duration(a.TokenHours) * time.Hour
}

// ParseLevel maps a level name onto slog. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", level)
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// This allows sensitive data like passwords to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if port := os.Getenv("NIGHTSKY_PORT"); port != "" {
		c.Server.Port = port
	}
	if dbHost := os.Getenv("NIGHTSKY_DB_HOST"); dbHost != "" {
		c.Database.Host = dbHost
	}
	if dbPassword := os.Getenv("NIGHTSKY_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if secret := os.Getenv("NIGHTSKY_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if dir := os.Getenv("NIGHTSKY_VSOP87_DIR"); dir != "" {
		c.Ephemeris.VSOP87Dir = dir
	}
	if level := os.Getenv("NIGHTSKY_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}
