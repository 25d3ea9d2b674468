// Package config provides configuration management for the cariin service.
// It handles loading and validation of configuration values from environment variables,
// with support for required variables, default values, and collective error reporting.
// Every problem found while loading is collected so that a misconfigured deployment
// reports all of its mistakes at once instead of one per restart.
package config

import (
	"fmt"
	// `os` package provides operating system functionalities, like reading environment variables.
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/user/cariin-go/apperror"
)

// Environment names recognised by APP_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// PoolConfig represents configuration for the PostgreSQL connection pool.
type PoolConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxSize  int
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	JWTSecret     string        // Secret key for signing JWTs
	TokenDuration time.Duration // Lifetime of a session token and its cookie
	SecureCookie  bool          // Set the Secure flag on the session cookie
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port string // Port for the HTTP server
}

// ScraperConfig describes the upstream scraping service.
type ScraperConfig struct {
	BaseURL string
	Timeout time.Duration
}

// RedisConfig configures the optional query-keyed result cache.
// An empty Addr disables the cache entirely.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CatalogConfig holds tuning knobs for the product cache gateway.
type CatalogConfig struct {
	CoalesceRefresh bool          // Share one upstream call between concurrent refreshes of the same query
	WarmQuery       string        // Query the background warmer keeps fresh; empty disables it
	WarmInterval    time.Duration // How often the warmer runs
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string
	Encoding    string
	Development bool
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	Env     string
	DB      *PoolConfig
	Auth    *AuthConfig
	Server  *ServerConfig
	Scraper *ScraperConfig
	Redis   *RedisConfig
	Catalog *CatalogConfig
	Log     *LogConfig
}

// IsProduction reports whether APP_ENV is "production".
func (c *AppConfig) IsProduction() bool {
	return c.Env == EnvProduction
}

// Helper function to get a required environment variable.
// Appends an error to the errors slice if the variable is not set or empty.
func getRequiredEnv(key string, errors *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		*errors = append(*errors, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// Helper function to get an optional environment variable with a default string value.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get an optional environment variable parsed as an int.
// Uses defaultValue if not set or if parsing fails. Appends an error if parsing fails.
func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// Helper function to get an optional environment variable parsed as a bool.
func getOptionalEnvBool(key string, defaultValue bool, errors *[]string) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueBool, err := strconv.ParseBool(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected boolean, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueBool
}

// Helper function to get an optional environment variable parsed as time.Duration.
// `time.ParseDuration` expects a string like "15m", "1h30s".
func getOptionalEnvDuration(key string, defaultValue time.Duration, errors *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	if valueDuration <= 0 {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: duration must be positive, got '%s'", key, valueStr))
		return defaultValue
	}
	return valueDuration
}

// clampPoolSize keeps the pool size between 2 and 100 connections.
func clampPoolSize(size int, errors *[]string) int {
	if size < 2 {
		*errors = append(*errors, fmt.Sprintf("DB_POOL_SIZE (%d) is less than minimum 2", size))
		return 2
	}
	if size > 100 {
		*errors = append(*errors, fmt.Sprintf("DB_POOL_SIZE (%d) is greater than maximum 100", size))
		return 100
	}
	return size
}

// LoadConfig creates and returns an AppConfig by reading and validating environment variables.
// It collects all errors encountered during loading and returns a single ConfigError if any exist.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	env := getOptionalEnv("APP_ENV", EnvDevelopment)

	// Database Configuration
	db := &PoolConfig{
		User:     getRequiredEnv("DB_USER", &errors),
		Password: getRequiredEnv("DB_PASSWORD", &errors),
		DBName:   getRequiredEnv("DB_NAME", &errors),
		Host:     getOptionalEnv("DB_HOST", "localhost"),
		Port:     getOptionalEnvInt("DB_PORT", 5432, &errors),
	}
	db.MaxSize = clampPoolSize(getOptionalEnvInt("DB_POOL_SIZE", 10, &errors), &errors)

	// Auth Configuration
	auth := &AuthConfig{
		JWTSecret:     getRequiredEnv("JWT_SECRET", &errors),
		TokenDuration: getOptionalEnvDuration("JWT_TOKEN_DURATION", 24*time.Hour, &errors),
		SecureCookie:  env == EnvProduction,
	}

	server := &ServerConfig{
		Port: getOptionalEnv("PORT", "3000"),
	}

	scraper := &ScraperConfig{
		BaseURL: strings.TrimRight(getOptionalEnv("SCRAPER_BASE_URL", "http://localhost:8000"), "/"),
		Timeout: getOptionalEnvDuration("SCRAPER_TIMEOUT", 60*time.Second, &errors),
	}
	if scraper.BaseURL == "" {
		errors = append(errors, "SCRAPER_BASE_URL must not be empty")
	}

	redis := &RedisConfig{
		Addr:     getOptionalEnv("REDIS_ADDR", ""),
		Password: getOptionalEnv("REDIS_PASSWORD", ""),
		DB:       getOptionalEnvInt("REDIS_DB", 0, &errors),
	}

	catalog := &CatalogConfig{
		CoalesceRefresh: getOptionalEnvBool("PRODUCT_COALESCE_REFRESH", false, &errors),
		WarmQuery:       strings.TrimSpace(getOptionalEnv("PRODUCT_WARM_QUERY", "")),
		WarmInterval:    getOptionalEnvDuration("PRODUCT_WARM_INTERVAL", 15*time.Minute, &errors),
	}

	defaultEncoding := "json"
	if env == EnvDevelopment {
		defaultEncoding = "console"
	}
	logCfg := &LogConfig{
		Level:       getOptionalEnv("LOG_LEVEL", "info"),
		Encoding:    getOptionalEnv("LOG_ENCODING", defaultEncoding),
		Development: env == EnvDevelopment,
	}

	if len(errors) > 0 {
		return nil, apperror.NewConfigError(
			fmt.Sprintf("configuration errors:\n- %s", strings.Join(errors, "\n- ")), nil)
	}

	return &AppConfig{
		Env:     env,
		DB:      db,
		Auth:    auth,
		Server:  server,
		Scraper: scraper,
		Redis:   redis,
		Catalog: catalog,
		Log:     logCfg,
	}, nil
}
