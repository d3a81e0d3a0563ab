package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
	// BaseDomain is the parent domain tenants are served under, e.g. "pos.example.com"
	// makes "acme.pos.example.com" resolve to the tenant keyed "acme".
	BaseDomain string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
	CookieName      string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// RedisConfig holds redis configuration. An empty URL keeps caches in process memory.
type RedisConfig struct {
	URL               string
	TenantCacheTTL    time.Duration
	TenantNegativeTTL time.Duration
}

// NotifyConfig holds the messaging collaborator configuration
type NotifyConfig struct {
	BaseURL       string
	InternalToken string
	Timeout       time.Duration
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Endpoint string
}

// SeedConfig describes the tenant created at startup when Store is "memory"
type SeedConfig struct {
	Schema        string
	OwnerEmail    string
	OwnerPassword string
}

// Config holds all configuration
type Config struct {
	// Store selects the repository backend: "postgres" or "memory"
	Store       string
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	Redis       RedisConfig
	Notify      NotifyConfig
	Tracing     TracingConfig
	Seed        SeedConfig
}

// Load loads configuration from .env (if present) and environment variables
func Load() (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		ServiceName: getEnv("SERVICE_NAME", "pos-service"),
		Store:       strings.ToLower(getEnv("STORE", "postgres")),
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "pos"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port:       getEnv("SERVER_PORT", "8080"),
			Env:        getEnv("APP_ENV", "development"),
			BaseDomain: strings.ToLower(getEnv("BASE_DOMAIN", "")),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", "defaultsecretkey"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
			CookieName:      getEnv("JWT_COOKIE_NAME", "pos_session"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Redis: RedisConfig{
			URL:               getEnv("REDIS_URL", ""),
			TenantCacheTTL:    getEnvAsDuration("TENANT_CACHE_TTL", 5*time.Minute),
			TenantNegativeTTL: getEnvAsDuration("TENANT_NEGATIVE_CACHE_TTL", 30*time.Second),
		},
		Notify: NotifyConfig{
			BaseURL:       getEnv("NOTIFY_BASE_URL", ""),
			InternalToken: getEnv("NOTIFY_INTERNAL_TOKEN", ""),
			Timeout:       getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second),
		},
		Tracing: TracingConfig{
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		},
		Seed: SeedConfig{
			Schema:        getEnv("SEED_SCHEMA", "demo"),
			OwnerEmail:    getEnv("SEED_OWNER_EMAIL", "owner@example.com"),
			OwnerPassword: getEnv("SEED_OWNER_PASSWORD", "demo"),
		},
	}

	if config.Store != "postgres" && config.Store != "memory" {
		return nil, fmt.Errorf("STORE must be postgres or memory, got %q", config.Store)
	}

	if config.Server.Env == "production" && config.JWT.SigningKey == "defaultsecretkey" {
		return nil, fmt.Errorf("JWT_SIGNING_KEY must be set in production")
	}

	return config, nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("store", c.Store),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_user", c.DB.User),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.String("base_domain", c.Server.BaseDomain),
		zap.Bool("redis_enabled", c.Redis.URL != ""),
		zap.Bool("notify_enabled", c.Notify.BaseURL != ""),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
