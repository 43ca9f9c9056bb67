// Package config loads paysign configuration from the environment.
//
// A .env file in the working directory is read first when present; values
// already set in the process environment win.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Gateway listen port (default: 8080)
//   - LOG_LEVEL: debug, info, warn or error (default: info)
//   - LOG_FORMAT: console or json (default: console)
//   - LOG_FILE: Log file path; empty logs to stderr
//
// Verification:
//   - TIMESTAMP_TOLERANCE: Accepted clock skew for X-Timestamp (default: 300s)
//   - MAX_BODY_BYTES: Largest request body read for verification (default: 1048576)
//   - UPSTREAM_URL: Service that receives verified requests (required by serve)
//   - METRICS_ENABLED: Serve Prometheus metrics on /metrics (default: true)
//
// Credential Store:
//   - CREDENTIAL_STORE: memory, sqlite, postgres or redis (default: sqlite)
//   - DATABASE_PATH: SQLite database file (default: ./paysign.db)
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_DB, POSTGRES_USER, POSTGRES_PASSWORD, POSTGRES_SSL_MODE
//   - REDIS_ADDRESS, REDIS_PASSWORD, REDIS_DB, REDIS_POOL_SIZE
//   - CONFIG_ENCRYPTION_KEY: Seals stored secret keys when set
//
// Caller Credentials (sign, webhook send):
//   - PAYSIGN_API_KEY, PAYSIGN_SECRET_KEY, PAYSIGN_BASE_URL
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values. Numeric and duration values are
// kept as strings until Validate has checked them.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string
	LogFile   string

	TimestampTolerance string
	MaxBodyBytes       string
	UpstreamURL        string
	MetricsEnabled     string

	CredentialStore string
	DatabasePath    string

	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	PostgresSSLMode  string

	RedisAddress  string
	RedisPassword string
	RedisDB       string
	RedisPoolSize string

	EncryptionKey string

	APIKey    string
	SecretKey string
	BaseURL   string
}

// Load reads .env (if present) and the environment. It does not validate.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		LogFile:   getEnv("LOG_FILE", ""),

		TimestampTolerance: getEnv("TIMESTAMP_TOLERANCE", "300s"),
		MaxBodyBytes:       getEnv("MAX_BODY_BYTES", "1048576"),
		UpstreamURL:        getEnv("UPSTREAM_URL", ""),
		MetricsEnabled:     getEnv("METRICS_ENABLED", "true"),

		CredentialStore: getEnv("CREDENTIAL_STORE", "sqlite"),
		DatabasePath:    getEnv("DATABASE_PATH", "./paysign.db"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDB:       getEnv("POSTGRES_DB", "paysign"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresSSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),

		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),

		EncryptionKey: getEnv("CONFIG_ENCRYPTION_KEY", ""),

		APIKey:    getEnv("PAYSIGN_API_KEY", ""),
		SecretKey: getEnv("PAYSIGN_SECRET_KEY", ""),
		BaseURL:   getEnv("PAYSIGN_BASE_URL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate checks everything every command depends on.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be 'console' or 'json'")
	}

	if d, err := time.ParseDuration(c.TimestampTolerance); err != nil || d <= 0 || d%time.Second != 0 {
		return fmt.Errorf("TIMESTAMP_TOLERANCE must be a positive whole number of seconds (e.g. '300s')")
	}

	if n, err := strconv.ParseInt(c.MaxBodyBytes, 10, 64); err != nil || n < 1 {
		return fmt.Errorf("MAX_BODY_BYTES must be a positive number")
	}

	if _, err := strconv.ParseBool(c.MetricsEnabled); err != nil {
		return fmt.Errorf("METRICS_ENABLED must be 'true' or 'false'")
	}

	switch c.CredentialStore {
	case "memory":
	case "sqlite":
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required when using sqlite")
		}
	case "postgres", "postgresql":
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required when using PostgreSQL")
		}
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required when using PostgreSQL")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required when using PostgreSQL")
		}
		if port, err := strconv.Atoi(c.PostgresPort); err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("POSTGRES_PORT must be a valid port number")
		}
	case "redis":
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS is required when using redis")
		}
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	default:
		return fmt.Errorf("CREDENTIAL_STORE must be 'memory', 'sqlite', 'postgres' or 'redis'")
	}

	return nil
}

// ValidateGateway additionally checks what serve needs.
func (c *Config) ValidateGateway() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.UpstreamURL == "" {
		return fmt.Errorf("UPSTREAM_URL is required to run the gateway")
	}
	u, err := url.Parse(c.UpstreamURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("UPSTREAM_URL must be an absolute URL")
	}
	if c.CredentialStore == "memory" {
		return fmt.Errorf("CREDENTIAL_STORE 'memory' cannot be provisioned for the gateway")
	}
	return nil
}

// Tolerance returns TIMESTAMP_TOLERANCE, or 300s if it does not parse.
func (c *Config) Tolerance() time.Duration {
	d, err := time.ParseDuration(c.TimestampTolerance)
	if err != nil || d <= 0 {
		return 300 * time.Second
	}
	return d
}

// BodyLimit returns MAX_BODY_BYTES, or 1 MiB if it does not parse.
func (c *Config) BodyLimit() int64 {
	n, err := strconv.ParseInt(c.MaxBodyBytes, 10, 64)
	if err != nil || n < 1 {
		return 1 << 20
	}
	return n
}

// Metrics reports whether METRICS_ENABLED is set; unparsable values count as
// enabled.
func (c *Config) Metrics() bool {
	enabled, err := strconv.ParseBool(c.MetricsEnabled)
	return err != nil || enabled
}

// RedisDBNumber returns REDIS_DB as an int.
func (c *Config) RedisDBNumber() int {
	n, _ := strconv.Atoi(c.RedisDB)
	return n
}

// RedisPoolSizeNumber returns REDIS_POOL_SIZE as an int.
func (c *Config) RedisPoolSizeNumber() int {
	n, _ := strconv.Atoi(c.RedisPoolSize)
	return n
}

// PostgresDSN builds a connection URL with escaped credentials.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     c.PostgresHost + ":" + c.PostgresPort,
		Path:     "/" + c.PostgresDB,
		RawQuery: url.Values{"sslmode": []string{c.PostgresSSLMode}}.Encode(),
	}
	return u.String()
}
