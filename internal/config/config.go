package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the collector settings, loaded from the environment.
type Config struct {
	// Intake
	TCPPort  int    `env:"TCP_PORT" default:"10053"`
	Encoding string `env:"ENCODING" default:"msgpack"`

	// Outputs ("null", "file", "redis", "postgres"; comma-separated)
	Outputs []string `env:"OUTPUTS" default:"null"`

	// File output templates
	FilePathFormat string `env:"FILE_PATH_FORMAT" default:"{parent/child}-{source}-logdrop.log"`
	FileLineFormat string `env:"FILE_LINE_FORMAT" default:"{message}"`

	// Redis output
	RedisURL      string `env:"REDIS_URL" default:"redis://localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisList     string `env:"REDIS_LIST" default:"logdrop:records"`

	// Postgres output
	DatabaseURL string `env:"DATABASE_URL"`

	// Stats HTTP endpoint; 0 disables it
	StatsHTTPPort int `env:"STATS_HTTP_PORT" default:"0"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

// LoadConfig loads configuration from environment variables, with an
// optional .env file.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := &Config{}

	if err := loadEnvInt(&config.TCPPort, "TCP_PORT", 10053); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.Encoding, "ENCODING", "msgpack"); err != nil {
		return nil, err
	}
	if err := loadEnvStringSlice(&config.Outputs, "OUTPUTS", []string{"null"}); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.FilePathFormat, "FILE_PATH_FORMAT", "{parent/child}-{source}-logdrop.log"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.FileLineFormat, "FILE_LINE_FORMAT", "{message}"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.RedisURL, "REDIS_URL", "redis://localhost:6379"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.RedisPassword, "REDIS_PASSWORD", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.RedisList, "REDIS_LIST", "logdrop:records"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.DatabaseURL, "DATABASE_URL", ""); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.StatsHTTPPort, "STATS_HTTP_PORT", 0); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.LogLevel, "LOG_LEVEL", "info"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.LogFormat, "LOG_FORMAT", "text"); err != nil {
		return nil, err
	}

	return config, nil
}

// RedisAddr strips the scheme prefix off REDIS_URL for the go-redis client.
func (c *Config) RedisAddr() string {
	addr := c.RedisURL
	addr = strings.TrimPrefix(addr, "redis://")
	addr = strings.TrimPrefix(addr, "rediss://")
	return addr
}

// Validate performs validation on the loaded configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.TCPPort < 1 || c.TCPPort > 65535 {
		errs = append(errs, "TCP_PORT must be between 1 and 65535")
	}
	if c.StatsHTTPPort < 0 || c.StatsHTTPPort > 65535 {
		errs = append(errs, "STATS_HTTP_PORT must be between 0 and 65535")
	}

	if c.Encoding != "json" && c.Encoding != "msgpack" {
		errs = append(errs, "ENCODING must be one of: json, msgpack")
	}

	validOutputs := []string{"null", "file", "redis", "postgres"}
	for _, out := range c.Outputs {
		if !contains(validOutputs, out) {
			errs = append(errs, fmt.Sprintf("OUTPUTS entry %q must be one of: %s", out, strings.Join(validOutputs, ", ")))
		}
	}
	if contains(c.Outputs, "postgres") && c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required for the postgres output")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}
	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, c.LogFormat) {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Helper functions for type conversion and validation
func loadEnvString(target *string, key, defaultValue string) error {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvStringSlice(target *[]string, key string, defaultValue []string) error {
	if value := os.Getenv(key); value != "" {
		*target = strings.Split(value, ",")
		for i, v := range *target {
			(*target)[i] = strings.TrimSpace(v)
		}
	} else {
		*target = defaultValue
	}
	return nil
}

// Helper function to check if slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
