// Package config provides centralized configuration management for the import service.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `envconfig:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request, including the upload body (default: 60s)
	ReadTimeout time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"60s"`

	// WriteTimeout is the maximum duration for writing the response (default: 5m)
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"5m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 5m)
	RequestTimeout time.Duration `envconfig:"SERVER_REQUEST_TIMEOUT" default:"5m"`
}

// BackendConfig holds the catalog backend connection settings.
type BackendConfig struct {
	// BaseURL is the catalog REST API root, e.g. https://api.example.com/api (required)
	BaseURL string `envconfig:"BACKEND_BASE_URL" required:"true"`

	// Token is sent as a bearer token when set
	Token string `envconfig:"BACKEND_TOKEN"`

	// Timeout bounds each backend request (default: 30s)
	Timeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"30s"`
}

// ImportConfig holds spreadsheet import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum accepted spreadsheet size in bytes (default: 20MB)
	MaxFileSize int64 `envconfig:"IMPORT_MAX_FILE_SIZE" default:"20971520"`

	// MaxConcurrent is the maximum number of imports processed at once (default: 3)
	MaxConcurrent int `envconfig:"IMPORT_MAX_CONCURRENT" default:"3"`

	// MaxWaitTime is how long a request waits for an import slot (default: 30s)
	MaxWaitTime time.Duration `envconfig:"IMPORT_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration of one import run (default: 5m)
	Timeout time.Duration `envconfig:"IMPORT_TIMEOUT" default:"5m"`

	// HeaderConflict decides what happens when two headers map to the same field:
	// last-wins, warn or reject (default: last-wins)
	HeaderConflict string `envconfig:"IMPORT_HEADER_CONFLICT" default:"last-wins"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `envconfig:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ImportLimit is requests per minute for import endpoints (default: 10)
	ImportLimit int `envconfig:"RATE_LIMIT_IMPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key authentication on /api routes (default: false)
	RequireAPIKey bool `envconfig:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `envconfig:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `envconfig:"LOG_FORMAT" default:"text"`

	// File, when set, also writes logs to a rotating file at this path
	File string `envconfig:"LOG_FILE"`

	// FileMaxSizeMB is the size at which the log file is rotated (default: 50)
	FileMaxSizeMB int `envconfig:"LOG_FILE_MAX_SIZE_MB" default:"50"`

	// FileMaxBackups is the number of rotated files kept (default: 5)
	FileMaxBackups int `envconfig:"LOG_FILE_MAX_BACKUPS" default:"5"`

	// FileMaxAgeDays is how long rotated files are kept (default: 28)
	FileMaxAgeDays int `envconfig:"LOG_FILE_MAX_AGE_DAYS" default:"28"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
