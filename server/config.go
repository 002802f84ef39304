package server

import (
	"errors"
	"fmt"
	"net"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/lixenwraith/config"
)

// Config holds all server configuration values
type Config struct {
	// Listener
	Host string `toml:"host"`
	Port int64  `toml:"port"`

	// Dispatch
	Workers        int64  `toml:"workers"`
	QueueCapacity  int64  `toml:"queue_capacity"`  // 0 is unbounded
	OverflowPolicy string `toml:"overflow_policy"` // "reject", "block" or "drop_oldest"

	// Timeouts
	ReadTimeoutMs   int64 `toml:"read_timeout_ms"`   // First request on a connection
	WriteTimeoutMs  int64 `toml:"write_timeout_ms"`  // One response write
	IdleTimeoutMs   int64 `toml:"idle_timeout_ms"`   // Wait for the next keep-alive request
	ShutdownGraceMs int64 `toml:"shutdown_grace_ms"` // In-flight exchanges get this long on shutdown

	// Requests
	MaxRequestBytes int64  `toml:"max_request_bytes"`
	Root            string `toml:"root"`  // Static resource directory
	Index           string `toml:"index"` // Served for "/"

	// Metrics endpoint, empty disables it
	MetricsAddr string `toml:"metrics_addr"`
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	Host: "127.0.0.1",
	Port: 8000,

	Workers:        8,
	QueueCapacity:  0,
	OverflowPolicy: string(PolicyReject),

	ReadTimeoutMs:   5000,
	WriteTimeoutMs:  5000,
	IdleTimeoutMs:   60000,
	ShutdownGraceMs: 5000,

	MaxRequestBytes: 30760,
	Root:            ".",
	Index:           "index.html",

	MetricsAddr: "",
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// RegisterConfig registers the server keys under prefix (e.g. "server.")
func RegisterConfig(loader *config.Config, prefix string) error {
	if err := loader.RegisterStruct(prefix, *DefaultConfig()); err != nil {
		return fmt.Errorf("server: failed to register config struct: %w", err)
	}
	return nil
}

// ConfigFromLoader extracts and validates the server configuration from a
// loaded loader. Loaded values go through the same parsing as overrides.
func ConfigFromLoader(loader *config.Config, prefix string) (*Config, error) {
	cfg := DefaultConfig()

	t := reflect.TypeOf(*cfg)
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("toml")
		val, found := loader.Get(prefix + key)
		if !found {
			continue
		}
		if err := applyConfigField(cfg, key, fmt.Sprint(val)); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads the server section of a TOML file.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	loader := config.New()
	if err := RegisterConfig(loader, "server."); err != nil {
		return nil, err
	}
	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}
	return ConfigFromLoader(loader, "server.")
}

// ApplyOverride applies "key=value" overrides and validates the result
func (c *Config) ApplyOverride(overrides ...string) error {
	var errs []string
	for _, override := range overrides {
		key, value, ok := strings.Cut(override, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			errs = append(errs, fmt.Sprintf("invalid override '%s', expected key=value", override))
			continue
		}
		if err := applyConfigField(c, key, strings.TrimSpace(value)); err != nil {
			errs = append(errs, strings.TrimPrefix(err.Error(), "server: "))
		}
	}
	if len(errs) > 0 {
		return fmtErrorf("invalid overrides: %s", strings.Join(errs, "; "))
	}
	return c.Validate()
}

// applyConfigField applies a single key-value pair to a Config
func applyConfigField(cfg *Config, key, value string) error {
	var intDst *int64
	switch key {
	case "host":
		cfg.Host = value
	case "port":
		intDst = &cfg.Port
	case "workers":
		intDst = &cfg.Workers
	case "queue_capacity":
		intDst = &cfg.QueueCapacity
	case "overflow_policy":
		cfg.OverflowPolicy = value
	case "read_timeout_ms":
		intDst = &cfg.ReadTimeoutMs
	case "write_timeout_ms":
		intDst = &cfg.WriteTimeoutMs
	case "idle_timeout_ms":
		intDst = &cfg.IdleTimeoutMs
	case "shutdown_grace_ms":
		intDst = &cfg.ShutdownGraceMs
	case "max_request_bytes":
		intDst = &cfg.MaxRequestBytes
	case "root":
		cfg.Root = value
	case "index":
		cfg.Index = value
	case "metrics_addr":
		cfg.MetricsAddr = value
	default:
		return fmtErrorf("unknown config key: '%s'", key)
	}

	if intDst != nil {
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for %s '%s'", key, value)
		}
		*intDst = v
	}
	return nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmtErrorf("port out of range: %d", c.Port)
	}
	if c.Workers < 1 {
		return fmtErrorf("workers must be at least 1: %d", c.Workers)
	}
	if c.QueueCapacity < 0 {
		return fmtErrorf("queue_capacity cannot be negative: %d", c.QueueCapacity)
	}
	if _, err := ParseOverflowPolicy(c.OverflowPolicy); err != nil {
		return err
	}
	if c.ReadTimeoutMs <= 0 || c.WriteTimeoutMs <= 0 || c.IdleTimeoutMs <= 0 {
		return fmtErrorf("read, write and idle timeouts must be positive")
	}
	if c.ShutdownGraceMs < 0 {
		return fmtErrorf("shutdown_grace_ms cannot be negative: %d", c.ShutdownGraceMs)
	}
	if c.MaxRequestBytes < 64 {
		return fmtErrorf("max_request_bytes too small: %d", c.MaxRequestBytes)
	}
	if strings.TrimSpace(c.Root) == "" {
		return fmtErrorf("root cannot be empty")
	}
	if strings.Contains(c.Index, "/") || c.Index == "" {
		return fmtErrorf("index must be a plain file name: '%s'", c.Index)
	}
	return nil
}

// Addr returns the listen address as host:port
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.FormatInt(c.Port, 10))
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

func (c *Config) readTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMs) * time.Millisecond
}

func (c *Config) writeTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMs) * time.Millisecond
}

func (c *Config) idleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMs) * time.Millisecond
}

func (c *Config) shutdownGrace() time.Duration {
	return time.Duration(c.ShutdownGraceMs) * time.Millisecond
}
