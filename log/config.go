package log

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/lixenwraith/config"
)

// Config holds all logger configuration values
type Config struct {
	// Basic settings
	Level           int64  `toml:"level"`
	Name            string `toml:"name"` // Registry name, empty gets a generated unique name
	TimestampFormat string `toml:"timestamp_format"`

	// Console output
	EnableConsole bool   `toml:"enable_console"`
	ConsoleTarget string `toml:"console_target"` // "stdout" or "stderr"
	Color         string `toml:"color"`          // "auto", "always" or "never"

	// File output
	EnableFile bool   `toml:"enable_file"`
	Directory  string `toml:"directory"`
	FileName   string `toml:"file_name"`
	Extension  string `toml:"extension"`

	// Rotation
	MaxSizeMB  int64 `toml:"max_size_mb"`  // Max size per log file before rotation
	MaxBackups int64 `toml:"max_backups"`  // Rotated files kept, 0 keeps all
	MaxAgeDays int64 `toml:"max_age_days"` // Days rotated files are kept, 0 keeps all
	Compress   bool  `toml:"compress"`     // Gzip rotated files

	// Lifecycle
	ShutdownTimeoutMs  int64 `toml:"shutdown_timeout_ms"`  // Default wait for the drain on shutdown
	HeartbeatIntervalS int64 `toml:"heartbeat_interval_s"` // 0 disables heartbeat records

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"` // Write sink failures to stderr
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	// Basic settings
	Level:           LevelInfo,
	Name:            "",
	TimestampFormat: time.ANSIC,

	// Console output
	EnableConsole: true,
	ConsoleTarget: ConsoleStdout,
	Color:         ColorAuto,

	// File output
	EnableFile: false,
	Directory:  "./logs",
	FileName:   "ccerve",
	Extension:  "log",

	// Rotation
	MaxSizeMB:  100,
	MaxBackups: 5,
	MaxAgeDays: 0,
	Compress:   false,

	// Lifecycle
	ShutdownTimeoutMs:  5000,
	HeartbeatIntervalS: 0,

	// Internal error handling
	InternalErrorsToStderr: true,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	// Create a copy to prevent modifications to the original
	copiedConfig := defaultConfig
	return &copiedConfig
}

// RegisterConfig registers the logger keys under prefix (e.g. "log.") on a
// shared loader so one file can carry several sections
func RegisterConfig(loader *config.Config, prefix string) error {
	if err := loader.RegisterStruct(prefix, *DefaultConfig()); err != nil {
		return fmt.Errorf("failed to register config struct: %w", err)
	}
	return nil
}

// ConfigFromLoader extracts and validates the logger configuration from a
// loader that has already been loaded
func ConfigFromLoader(loader *config.Config, prefix string) (*Config, error) {
	cfg := DefaultConfig()

	if err := extractConfig(loader, prefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to extract config values: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewConfigFromFile loads configuration from a TOML file and returns a validated Config
func NewConfigFromFile(path string) (*Config, error) {
	// Use lixenwraith/config as a loader
	loader := config.New()

	if err := RegisterConfig(loader, "log."); err != nil {
		return nil, err
	}

	// Load from file (handles file not found gracefully)
	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	return ConfigFromLoader(loader, "log.")
}

// NewConfigFromDefaults creates a Config with default values and applies overrides
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	// Apply overrides using reflection
	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmt.Errorf("failed to apply overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// extractConfig copies every value the loader holds under prefix into cfg.
// Strings destined for bool or int fields, as the command line and
// environment deliver them or a level name in the file, are parsed like
// overrides.
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	fields := tomlFields(cfg)
	for key, field := range fields {
		val, found := loader.Get(prefix + key)
		if !found {
			continue
		}
		if s, ok := val.(string); ok && field.Kind() != reflect.String {
			if err := applyConfigField(fields, key, s); err != nil {
				return err
			}
			continue
		}
		if err := setFieldValue(field, val); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

// applyOverrides applies typed values keyed by toml tag
func applyOverrides(cfg *Config, overrides map[string]any) error {
	fields := tomlFields(cfg)
	for key, value := range overrides {
		field, ok := fields[key]
		if !ok {
			return fmt.Errorf("unknown config key: %s", key)
		}
		if err := setFieldValue(field, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		case float64:
			// Some decoders produce floats for integer literals
			if v != float64(int64(v)) {
				return fmt.Errorf("expected integer, got %v", v)
			}
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TimestampFormat) == "" {
		return fmtErrorf("timestamp_format cannot be empty")
	}

	if c.ConsoleTarget != ConsoleStdout && c.ConsoleTarget != ConsoleStderr {
		return fmtErrorf("invalid console_target: '%s' (use stdout or stderr)", c.ConsoleTarget)
	}

	if c.Color != ColorAuto && c.Color != ColorAlways && c.Color != ColorNever {
		return fmtErrorf("invalid color: '%s' (use auto, always or never)", c.Color)
	}

	if c.EnableFile {
		if strings.TrimSpace(c.FileName) == "" {
			return fmtErrorf("file_name cannot be empty when file output is enabled")
		}
		if strings.HasPrefix(c.Extension, ".") {
			return fmtErrorf("extension should not start with dot: %s", c.Extension)
		}
	}

	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmtErrorf("rotation limits cannot be negative")
	}

	if c.ShutdownTimeoutMs <= 0 {
		return fmtErrorf("shutdown_timeout_ms must be positive: %d", c.ShutdownTimeoutMs)
	}

	if c.HeartbeatIntervalS < 0 {
		return fmtErrorf("heartbeat_interval_s cannot be negative: %d", c.HeartbeatIntervalS)
	}

	return nil
}

// FilePath returns the full path of the log file
func (c *Config) FilePath() string {
	filename := c.FileName
	if c.Extension != "" {
		filename = c.FileName + "." + c.Extension
	}
	return filepath.Join(c.Directory, filename)
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}
