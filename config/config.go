// Package config loads service configuration from the environment.
// A .env file is read when present (local development); real deployments
// inject variables directly.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Service   ServiceConfig
	Database  DatabaseConfig
	Session   SessionConfig
	Logging   LoggingConfig
	Tracing   TracingConfig
	Profiling ProfilingConfig
	Shutdown  ShutdownConfig
}

type ServiceConfig struct {
	Name    string
	Version string
	Env     string
	Port    string
}

type DatabaseConfig struct {
	URL string
}

type SessionConfig struct {
	CookieName string
	TTL        time.Duration
}

type LoggingConfig struct {
	Level string
}

type TracingConfig struct {
	Enabled    bool
	Endpoint   string
	SampleRate float64
}

type ProfilingConfig struct {
	Enabled  bool
	Endpoint string
}

type ShutdownConfig struct {
	Timeout             time.Duration
	ReadinessDrainDelay time.Duration
}

// Load reads configuration from the environment, applying defaults for
// everything except the database URL.
func Load() *Config {
	// Best effort; absence of a .env file is the normal production case.
	_ = godotenv.Load()

	return &Config{
		Service: ServiceConfig{
			Name:    getEnv("SERVICE_NAME", "credential-service"),
			Version: getEnv("SERVICE_VERSION", "dev"),
			Env:     getEnv("SERVICE_ENV", "development"),
			Port:    getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Session: SessionConfig{
			CookieName: getEnv("SESSION_COOKIE_NAME", "auth_session"),
			TTL:        getDuration("SESSION_TTL", 30*24*time.Hour),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Tracing: TracingConfig{
			Enabled:    getBool("TRACING_ENABLED", false),
			Endpoint:   getEnv("TRACING_ENDPOINT", "localhost:4318"),
			SampleRate: getFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		Profiling: ProfilingConfig{
			Enabled:  getBool("PROFILING_ENABLED", false),
			Endpoint: getEnv("PROFILING_ENDPOINT", "http://localhost:4040"),
		},
		Shutdown: ShutdownConfig{
			Timeout:             getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			ReadinessDrainDelay: getDuration("READINESS_DRAIN_DELAY", 0),
		},
	}
}

// Validate reports configuration errors that must stop startup.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATE must be in [0,1], got %v", c.Tracing.SampleRate)
	}
	return nil
}

// IsProduction reports whether the service runs in a production-like
// environment. Controls the Secure attribute on session cookies.
func (c *Config) IsProduction() bool {
	return c.Service.Env == "production"
}

func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return c.Shutdown.Timeout
}

func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	return c.Shutdown.ReadinessDrainDelay
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
