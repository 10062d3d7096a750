package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Catalog   CatalogConfig
	Telemetry TelemetryConfig
	Features  FeatureFlags
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host         string
	Port         int
	Database     string
	User         string
	Password     string
	MaxConns     int
	MinConns     int
	MaxIdleTime  time.Duration
	MaxLifetime  time.Duration
}

// CacheConfig holds cache settings
type CacheConfig struct {
	Enabled    bool
	SizeMB     int
	DefaultTTL time.Duration
}

// CatalogConfig holds settings specific to the workflow catalog
// service: a default page size, and the TTL for its decode-result
// cache. The workflow listing returns every tag and does not read
// DefaultPageSize.
type CatalogConfig struct {
	DefaultPageSize int
	DecodeCacheTTL  time.Duration
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof    bool
	PprofPort      int
	EnableTracing  bool
	EnableMetrics  bool
	MetricsPort    int
	TracingBackend string
}

// FeatureFlags for MVP toggles
type FeatureFlags struct {
	EnableDistributedCache bool
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"), // Default to text for development
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "catalog"),
			User:        getEnv("POSTGRES_USER", "catalog"),
			Password:    getEnv("POSTGRES_PASSWORD", "catalog"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 50),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 10),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Cache: CacheConfig{
			Enabled:    getEnvBool("CACHE_ENABLED", true),
			SizeMB:     getEnvInt("CACHE_SIZE_MB", 512),
			DefaultTTL: getEnvDuration("CACHE_DEFAULT_TTL", 1*time.Hour),
		},
		Catalog: CatalogConfig{
			DefaultPageSize: getEnvInt("CATALOG_DEFAULT_PAGE_SIZE", 50),
			DecodeCacheTTL:  getEnvDuration("CATALOG_DECODE_CACHE_TTL", 10*time.Minute),
		},
		Telemetry: TelemetryConfig{
			EnablePprof:    getEnvBool("ENABLE_PPROF", true),
			PprofPort:      getEnvInt("PPROF_PORT", 6060),
			EnableTracing:  getEnvBool("ENABLE_TRACING", true),
			EnableMetrics:  getEnvBool("ENABLE_METRICS", true),
			MetricsPort:    getEnvInt("METRICS_PORT", 9090),
			TracingBackend: getEnv("TRACING_BACKEND", "stdout"),
		},
		Features: FeatureFlags{
			EnableDistributedCache: getEnvBool("ENABLE_DISTRIBUTED_CACHE", false),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
