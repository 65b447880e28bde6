// Package config loads and validates server configuration.
//
// Configuration merges three layers, lowest precedence first: built-in
// secure defaults, an optional YAML file, and QUILL_-prefixed
// environment variables. All security-relevant knobs default closed.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// maxConfigFileSize caps how large a config file may be before it is
// parsed.
const maxConfigFileSize = 1 << 20

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Limits   LimitsConfig   `koanf:"limits"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig covers identity and filesystem roots.
type ServerConfig struct {
	Name          string `koanf:"name"`
	BaseDirectory string `koanf:"base_directory"`
	OutputDir     string `koanf:"output_dir"`
	TemplatesDir  string `koanf:"templates_dir"`
}

// SecurityConfig covers the validation policy knobs.
type SecurityConfig struct {
	RestrictToBaseDirectory bool   `koanf:"restrict_to_base_directory"`
	AllowAbsolutePaths      bool   `koanf:"allow_absolute_paths"`
	MaxInputLength          int    `koanf:"max_input_length"`
	AuditDBPath             string `koanf:"audit_db_path"`
}

// LimitsConfig covers resource budgets.
type LimitsConfig struct {
	MaxFileSizeBytes     int64 `koanf:"max_file_size_bytes"`
	MaxProcessingSeconds int   `koanf:"max_processing_seconds"`
	FileTimeoutSeconds   int   `koanf:"file_timeout_seconds"`
	MaxConcurrentFiles   int   `koanf:"max_concurrent_files"`
	MaxRequestsPerMinute int   `koanf:"max_requests_per_minute"`
}

// LoggingConfig covers the structured log and event handling.
type LoggingConfig struct {
	Level        string `koanf:"level"`
	LogUserInput bool   `koanf:"log_user_input"`
}

// Default returns the secure baseline configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Name:      "quill",
			OutputDir: "generated-docs",
		},
		Security: SecurityConfig{
			RestrictToBaseDirectory: true,
			AllowAbsolutePaths:      false,
			MaxInputLength:          50000,
		},
		Limits: LimitsConfig{
			MaxFileSizeBytes:     50 * 1024 * 1024,
			MaxProcessingSeconds: 180,
			FileTimeoutSeconds:   30,
			MaxConcurrentFiles:   4,
			MaxRequestsPerMinute: 30,
		},
		Logging: LoggingConfig{
			Level:        "info",
			LogUserInput: false,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file
// at path (empty path skips the file layer), and QUILL_ environment
// variables. QUILL_LIMITS_MAX_CONCURRENT_FILES=2 sets
// limits.max_concurrent_files, and so on.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	cfg := Default()
	if path != "" {
		raw, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := k.Load(rawbytes.Provider(raw), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("QUILL_", ".", func(s string) string {
		return strings.ToLower(strings.Replace(strings.TrimPrefix(s, "QUILL_"), "_", ".", 1))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// readConfigFile reads the config file after checking it is a regular
// file of sane size.
func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("config file is not a regular file: %s", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return os.ReadFile(path)
}

// Validate rejects configurations that would weaken or break the
// pipeline.
func (c Config) Validate() error {
	if c.Security.MaxInputLength <= 0 {
		return fmt.Errorf("security.max_input_length must be positive")
	}
	if c.Limits.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("limits.max_file_size_bytes must be positive")
	}
	if c.Limits.MaxProcessingSeconds <= 0 {
		return fmt.Errorf("limits.max_processing_seconds must be positive")
	}
	if c.Limits.MaxConcurrentFiles <= 0 {
		return fmt.Errorf("limits.max_concurrent_files must be positive")
	}
	if c.Limits.MaxRequestsPerMinute <= 0 {
		return fmt.Errorf("limits.max_requests_per_minute must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	return nil
}
