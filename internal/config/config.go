// Package config provides centralized configuration management for the admin.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Export   ExportConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	History  HistoryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-streaming requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// MetricsEnabled serves Prometheus metrics on /metrics (default: true)
	MetricsEnabled bool `env:"METRICS_ENABLED" default:"true"`
}

// BackendConfig holds settings for the catalog REST API.
type BackendConfig struct {
	// BaseURL is the API root, e.g. https://api.example.com (required)
	BaseURL string `env:"API_BASE_URL" envAlt:"BACKEND_URL" required:"true"`

	// Timeout bounds a single HTTP request (default: 30s)
	Timeout time.Duration `env:"API_TIMEOUT" default:"30s"`

	// UserAgent is sent with every request
	UserAgent string `env:"API_USER_AGENT" default:"scentadmin/1.0"`

	// CacheTTL is how long list and dashboard responses are cached (default: 60s)
	CacheTTL time.Duration `env:"API_CACHE_TTL" default:"60s"`

	// Token authenticates CLI requests when no session exists
	Token string `env:"API_TOKEN"`
}

// ExportConfig holds batch export settings.
type ExportConfig struct {
	// BatchSize is the number of records per export request (default: 2000)
	BatchSize int `env:"EXPORT_BATCH_SIZE" default:"2000"`

	// BatchDelay is the pause between export requests (default: 400ms)
	BatchDelay time.Duration `env:"EXPORT_BATCH_DELAY" default:"400ms"`

	// DownloadTTL is how long a finished file waits to be downloaded (default: 15m)
	DownloadTTL time.Duration `env:"EXPORT_DOWNLOAD_TTL" default:"15m"`

	// MaxConcurrent caps exports and imports running at once (default: 4)
	MaxConcurrent int `env:"EXPORT_MAX_CONCURRENT" default:"4"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum allowed upload size in bytes (default: 50MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"52428800"`
}

// RateLimitConfig holds rate limiting settings per client IP.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// TransferLimit is requests per minute for export and import triggers (default: 10)
	TransferLimit int `env:"RATE_LIMIT_TRANSFER" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// SessionCookie is the name of the cookie holding the backend token
	SessionCookie string `env:"SESSION_COOKIE_NAME" default:"scentadmin_session"`

	// SecureCookies marks the session cookie Secure (default: true)
	SecureCookies bool `env:"SESSION_SECURE_COOKIE" default:"true"`

	// SessionMaxAge is the session cookie lifetime (default: 12h)
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" default:"12h"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// HistoryConfig holds job history storage settings. Without a database URL
// history is kept in memory.
type HistoryConfig struct {
	// DatabaseURL is the PostgreSQL connection string (optional)
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 5)
	MaxConns int `env:"DB_MAX_CONNS" default:"5"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// RetentionDays is how long finished jobs are kept (default: 30)
	RetentionDays int `env:"HISTORY_RETENTION_DAYS" default:"30"`

	// PruneInterval is how often old jobs are removed (default: 6h)
	PruneInterval time.Duration `env:"HISTORY_PRUNE_INTERVAL" default:"6h"`
}

// Persistent reports whether history is stored in PostgreSQL.
func (c *HistoryConfig) Persistent() bool {
	return c.DatabaseURL != ""
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
