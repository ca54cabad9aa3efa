package config

import (
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"goanova/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Session   SessionConfig
	Analysis  AnalysisConfig
	Profiling ProfilingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port          string
	GinMode       string
	SecureCookies bool
}

// DataConfig holds dataset ingestion settings
type DataConfig struct {
	Delimiter      rune
	ExcelSheet     string
	MaxUploadBytes int64
	PreviewRows    int
}

// SessionConfig holds session lifecycle settings
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// AnalysisConfig bounds the work a server does at once
type AnalysisConfig struct {
	MaxConcurrentFits int
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	dataConfig, err := loadDataConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load data configuration")
	}

	config := &Config{
		Server:    *loadServerConfig(),
		Data:      *dataConfig,
		Session:   *loadSessionConfig(),
		Analysis:  AnalysisConfig{MaxConcurrentFits: getEnvIntOrDefault("MAX_CONCURRENT_FITS", 4)},
		Profiling: *loadProfilingConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", GinMode: "release"},
		Data: DataConfig{
			Delimiter:      ';',
			MaxUploadBytes: 32 << 20,
			PreviewRows:    5,
		},
		Session:   SessionConfig{TTL: 2 * time.Hour, SweepInterval: 5 * time.Minute},
		Analysis:  AnalysisConfig{MaxConcurrentFits: 4},
		Profiling: ProfilingConfig{Port: "6060"},
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:          getEnvOrDefault("PORT", "8080"),
		GinMode:       getEnvOrDefault("GIN_MODE", "release"),
		SecureCookies: getEnvBoolOrDefault("SECURE_COOKIES", false),
	}
}

func loadDataConfig() (*DataConfig, error) {
	delimiter, err := ParseDelimiter(getEnvOrDefault("CSV_DELIMITER", ";"))
	if err != nil {
		return nil, err
	}

	return &DataConfig{
		Delimiter:      delimiter,
		ExcelSheet:     getEnvOrDefault("EXCEL_SHEET", ""),
		MaxUploadBytes: int64(getEnvIntOrDefault("MAX_UPLOAD_MB", 32)) << 20,
		PreviewRows:    getEnvIntOrDefault("PREVIEW_ROWS", 5),
	}, nil
}

func loadSessionConfig() *SessionConfig {
	return &SessionConfig{
		TTL:           getEnvDurationOrDefault("SESSION_TTL", 2*time.Hour),
		SweepInterval: getEnvDurationOrDefault("SESSION_SWEEP_INTERVAL", 5*time.Minute),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

// ParseDelimiter accepts a single character, or "\t" for tabs.
func ParseDelimiter(value string) (rune, error) {
	if value == `\t` {
		return '\t', nil
	}
	if utf8.RuneCountInString(value) != 1 {
		return 0, errors.ConfigInvalid("CSV_DELIMITER must be a single character")
	}
	r, _ := utf8.DecodeRuneInString(value)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, errors.ConfigInvalid("CSV_DELIMITER cannot be a quote or line break")
	}
	return r, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Data.MaxUploadBytes <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	if config.Data.PreviewRows < 0 {
		return errors.ConfigInvalid("PREVIEW_ROWS cannot be negative")
	}
	if config.Session.TTL <= 0 {
		return errors.ConfigInvalid("SESSION_TTL must be positive")
	}
	if config.Session.SweepInterval <= 0 {
		return errors.ConfigInvalid("SESSION_SWEEP_INTERVAL must be positive")
	}
	if config.Analysis.MaxConcurrentFits <= 0 {
		return errors.ConfigInvalid("MAX_CONCURRENT_FITS must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
