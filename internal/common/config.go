package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment" validate:"oneof=development production"`
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Storage     StorageConfig   `toml:"storage"`
	Tasks       TasksConfig     `toml:"tasks"`
	Directory   DirectoryConfig `toml:"directory"`
	Upload      UploadConfig    `toml:"upload"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host" validate:"required"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"`
	Format string   `toml:"format" validate:"oneof=text json"`
	Output []string `toml:"output"` // "stdout", "file"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"`
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// TasksConfig controls the upload-task store and retention sweep
type TasksConfig struct {
	Store         string `toml:"store" validate:"oneof=memory badger"` // Task store backend
	Retention     string `toml:"retention"`                            // Duration string, e.g. "24h"
	SweepSchedule string `toml:"sweep_schedule"`                       // Cron expression for the retention sweep
}

// DirectoryConfig configures the external group directory API client
type DirectoryConfig struct {
	BaseURL        string `toml:"base_url" validate:"required,url"`
	APIKey         string `toml:"api_key"`
	APIVersion     string `toml:"api_version"`
	RequestTimeout string `toml:"request_timeout"`                     // Per-call HTTP timeout, duration string
	RateLimit      int    `toml:"rate_limit" validate:"min=1"`         // Requests per second
	BatchSize      int    `toml:"batch_size" validate:"min=1,max=500"` // Identifiers per directory call
	BatchDelay     string `toml:"batch_delay"`                         // Fixed delay between batches, duration string
}

// UploadConfig bounds what the submission endpoint accepts
type UploadConfig struct {
	MaxFileSize       int64    `toml:"max_file_size" validate:"min=1"` // Bytes
	AllowedExtensions []string `toml:"allowed_extensions"`
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in congrego.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Tasks: TasksConfig{
			Store:         "memory",
			Retention:     "24h",
			SweepSchedule: "*/10 * * * *",
		},
		Directory: DirectoryConfig{
			BaseURL:        "https://api.vk.com/method",
			APIVersion:     "5.131",
			RequestTimeout: "30s",
			RateLimit:      3,   // Directory service allows 3 requests per second per token
			BatchSize:      500, // Directory service per-call limit
			BatchDelay:     "350ms",
		},
		Upload: UploadConfig{
			MaxFileSize:       10 * 1024 * 1024,
			AllowedExtensions: []string{".txt"},
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files. Later files override
// earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CONGREGO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("CONGREGO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("CONGREGO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if level := os.Getenv("CONGREGO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("CONGREGO_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	if key := os.Getenv("CONGREGO_DIRECTORY_API_KEY"); key != "" {
		config.Directory.APIKey = key
	}
	if base := os.Getenv("CONGREGO_DIRECTORY_BASE_URL"); base != "" {
		config.Directory.BaseURL = base
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the configuration using validator tags plus duration fields
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	for name, value := range map[string]string{
		"tasks.retention":           c.Tasks.Retention,
		"directory.request_timeout": c.Directory.RequestTimeout,
		"directory.batch_delay":     c.Directory.BatchDelay,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ParseDurationOr parses a duration string, falling back to def on error
func ParseDurationOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
