package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	VisitAPI VisitAPIConfig
	Sync     SyncConfig
	OTEL     OTELConfig
	Env      string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// VisitAPIConfig holds configuration for the hospital information system
// endpoint the dashboard syncs visit records from.
type VisitAPIConfig struct {
	BaseURL        string
	Username       string
	Password       string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	MaxRetries     int
}

// SyncConfig holds tuning knobs for the sync pipeline
type SyncConfig struct {
	// FanOut is the number of concurrent remote fetches in a range sync
	FanOut int
	// UpsertChunkSize bounds the number of rows per upsert statement
	UpsertChunkSize int
	// Workers is the worker count for background batch syncs
	Workers int
	// WatchInterval is how often the watcher compares today's counts
	WatchInterval time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "hospital_dashboard"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		VisitAPI: VisitAPIConfig{
			BaseURL:        getEnv("VISIT_API_BASE_URL", "http://localhost:8090/dashboard"),
			Username:       getEnv("VISIT_API_USERNAME", ""),
			Password:       getEnv("VISIT_API_PASSWORD", ""),
			ConnectTimeout: getEnvAsDuration("VISIT_API_CONNECT_TIMEOUT", 10*time.Second),
			RequestTimeout: getEnvAsDuration("VISIT_API_TIMEOUT", 60*time.Second),
			MaxRetries:     getEnvAsInt("VISIT_API_MAX_RETRIES", 2),
		},
		Sync: SyncConfig{
			FanOut:          getEnvAsInt("SYNC_FAN_OUT", 20),
			UpsertChunkSize: getEnvAsInt("SYNC_UPSERT_CHUNK_SIZE", 1000),
			Workers:         getEnvAsInt("SYNC_WORKERS", 3),
			WatchInterval:   getEnvAsDuration("SYNC_WATCH_INTERVAL", 5*time.Minute),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "hospital-dashboard-sync"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Env: getEnv("APP_ENV", "development"),
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
