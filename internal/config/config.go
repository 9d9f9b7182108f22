package config

import (
	"fmt"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`

	DatabaseDriver string `mapstructure:"database_driver" yaml:"database_driver"`
	DatabaseDSN    string `mapstructure:"database_dsn" yaml:"database_dsn"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	MetricsEnabled bool `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`
}

// DefaultJWTSecret is the placeholder secret written to fresh config files.
const DefaultJWTSecret = "change-me"

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		DatabaseDriver:    "sqlite3",
		DatabaseDSN:       "wiremsg.db",
		JWTSecret:         DefaultJWTSecret,
		JWTIssuer:         "wiremsg",
		JWTAudience:       "wiremsg-api",
		JWTTTL:            24 * time.Hour,
		MetricsEnabled:    true,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.DatabaseDriver != "" {
		c.DatabaseDriver = other.DatabaseDriver
	}
	if other.DatabaseDSN != "" {
		c.DatabaseDSN = other.DatabaseDSN
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTTTL != 0 {
		c.JWTTTL = other.JWTTTL
	}
}

// Validate reports configuration values the server cannot start with.
func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("database_driver must be sqlite3 or pgx, got %q", c.DatabaseDriver)
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database_dsn is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("jwt_ttl must be positive, got %s", c.JWTTTL)
	}
	return nil
}
