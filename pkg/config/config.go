package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/FACorreiaa/household-ledger/pkg/money"
)

const defaultJWTSecret = "changeme"

// Config holds all application configuration
type Config struct {
	Env           string
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	Import        ImportConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerMinute int
	RateLimitBurst     int
	CORSOrigins        []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
	LogLevel       string
	ServiceName    string
}

// ImportConfig controls the transaction import pipeline.
type ImportConfig struct {
	Currency           string
	Timezone           string
	MaxUploadBytes     int64
	Timeout            time.Duration
	UploadDir          string
	RetentionDays      int
	RetentionSchedule  string
	AutoCreateAccount  bool
	AutoCreateCategory bool
}

// Load reads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			RateLimitPerMinute: getEnvAsInt("SERVER_RATE_LIMIT_PER_MINUTE", 120),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 20),
			CORSOrigins:        getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "household-ledger"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", defaultJWTSecret),
			JWTIssuer: getEnv("JWT_ISSUER", "household-ledger"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "household-ledger"),
		},
		Import: ImportConfig{
			Currency:           strings.ToUpper(getEnv("IMPORT_CURRENCY", "CNY")),
			Timezone:           getEnv("IMPORT_TIMEZONE", "Asia/Shanghai"),
			MaxUploadBytes:     getEnvAsInt64("IMPORT_MAX_UPLOAD_BYTES", 10<<20),
			Timeout:            getEnvAsDuration("IMPORT_TIMEOUT", 5*time.Minute),
			UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
			RetentionDays:      getEnvAsInt("UPLOAD_RETENTION_DAYS", 30),
			RetentionSchedule:  getEnv("UPLOAD_RETENTION_SCHEDULE", "0 3 * * *"),
			AutoCreateAccount:  getEnvAsBool("IMPORT_AUTO_CREATE_ACCOUNT", false),
			AutoCreateCategory: getEnvAsBool("IMPORT_AUTO_CREATE_CATEGORY", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.IsProduction() && c.Auth.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be changed in production")
	}
	if _, err := c.Import.Location(); err != nil {
		return err
	}
	if !money.Supported(c.Import.Currency) {
		return fmt.Errorf("IMPORT_CURRENCY must be an ISO 4217 code, got %q", c.Import.Currency)
	}
	if c.Import.MaxUploadBytes <= 0 {
		return errors.New("IMPORT_MAX_UPLOAD_BYTES must be positive")
	}
	if c.Import.RetentionDays < 0 {
		return errors.New("UPLOAD_RETENTION_DAYS must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Addr is the listen address of the API server.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Location resolves the zone dates without an offset are read in.
func (c *ImportConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid IMPORT_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Retention is how long archived uploads are kept. Zero disables the purge.
func (c *ImportConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
