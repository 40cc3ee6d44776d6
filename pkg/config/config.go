package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/personalsuite/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Security configuration (API key, CORS)
	Security SecurityConfig

	// Database configuration
	Database DatabaseConfig

	// Modules configuration
	Modules ModulesConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port, no API key)
	HealthPort string
}

// Addr returns the main listener address
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// HealthAddr returns the health listener address
func (s ServerConfig) HealthAddr() string {
	return s.Host + ":" + s.HealthPort
}

// SecurityConfig holds request authentication and CORS settings
type SecurityConfig struct {
	APIKey               string
	CORSOrigins          []string
	CORSAllowCredentials bool
}

// DatabaseConfig holds database engine settings
type DatabaseConfig struct {
	URL             string
	Echo            bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// ModulesConfig holds module discovery settings
type ModulesConfig struct {
	// ManifestFile optionally pins which modules load and in which order
	ManifestFile string
}

// RateLimitConfig holds request rate limiting settings
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
	Burst    int
	RedisURL string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel  observability.LogLevel
	LogFormat observability.LogFormat

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Security:      loadSecurityConfig(),
		Database:      loadDatabaseConfig(),
		Modules:       loadModulesConfig(),
		RateLimit:     loadRateLimitConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("PERSONALSUITE_HOST", "0.0.0.0"),
		Port:            getEnv("PERSONALSUITE_PORT", "8000"),
		ReadTimeout:     getEnvDuration("PERSONALSUITE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("PERSONALSUITE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("PERSONALSUITE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("PERSONALSUITE_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("PERSONALSUITE_HEALTH_PORT", "9000"),
	}
}

// loadSecurityConfig loads API key and CORS configuration from environment
func loadSecurityConfig() SecurityConfig {
	return SecurityConfig{
		APIKey:               os.Getenv("PERSONALSUITE_API_KEY"),
		CORSOrigins:          getEnvList("PERSONALSUITE_CORS_ORIGINS"),
		CORSAllowCredentials: getEnvBool("PERSONALSUITE_CORS_ALLOW_CREDENTIALS", false),
	}
}

// loadDatabaseConfig loads database engine configuration from environment
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:             os.Getenv("DATABASE_URL"),
		Echo:            getEnvBool("ENGINE_ECHO", false),
		MaxOpenConns:    getEnvInt("PERSONALSUITE_DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("PERSONALSUITE_DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("PERSONALSUITE_DB_CONN_MAX_LIFETIME", 5*time.Minute),
		ConnectTimeout:  getEnvDuration("PERSONALSUITE_DB_CONNECT_TIMEOUT", 10*time.Second),
	}
}

// loadModulesConfig loads module discovery configuration from environment
func loadModulesConfig() ModulesConfig {
	return ModulesConfig{
		ManifestFile: getEnv("PERSONALSUITE_MODULES_FILE", ""),
	}
}

// loadRateLimitConfig loads rate limiting configuration from environment
func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:  getEnvBool("PERSONALSUITE_RATE_LIMIT_ENABLED", false),
		Requests: getEnvInt("PERSONALSUITE_RATE_LIMIT_REQUESTS", 600),
		Window:   getEnvDuration("PERSONALSUITE_RATE_LIMIT_WINDOW", time.Minute),
		Burst:    getEnvInt("PERSONALSUITE_RATE_LIMIT_BURST", 50),
		RedisURL: getEnv("PERSONALSUITE_REDIS_URL", ""),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("PERSONALSUITE_LOG_LEVEL", "info")),
		LogFormat:          observability.ParseLogFormat(getEnv("PERSONALSUITE_LOG_FORMAT", "json")),
		MetricsEnabled:     getEnvBool("PERSONALSUITE_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("PERSONALSUITE_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("PERSONALSUITE_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("PERSONALSUITE_OTEL_SERVICE_NAME", "personal-suite"),
		OTelServiceVersion: getEnv("PERSONALSUITE_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("PERSONALSUITE_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// The service refuses to start without a database or an API key
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is not defined")
	}
	if c.Security.APIKey == "" {
		return fmt.Errorf("PERSONALSUITE_API_KEY environment variable is not defined")
	}

	// Validate server config
	if err := validatePort("server port", c.Server.Port); err != nil {
		return err
	}
	if err := validatePort("health port", c.Server.HealthPort); err != nil {
		return err
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Wildcard origins cannot be combined with credentials
	if c.Security.CORSAllowCredentials {
		for _, origin := range c.Security.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS credentials cannot be allowed for wildcard origin")
			}
		}
	}

	// Validate database pool
	if c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database pool sizes must not be negative")
	}

	// Validate rate limiting
	if c.RateLimit.Enabled {
		if c.RateLimit.Requests <= 0 {
			return fmt.Errorf("rate limit requests must be positive")
		}
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate limit window must be positive")
		}
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// validatePort checks that a port value is an integer in the TCP range
func validatePort(name, value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer, got: %q", name, value)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got: %d", name, port)
	}
	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma separated environment variable as a slice
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
