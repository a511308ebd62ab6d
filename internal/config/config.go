// ABOUTME: Configuration loading and parsing for coven-stream
// ABOUTME: Supports YAML and TOML files with environment variable expansion

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config represents the complete coven-stream configuration
type Config struct {
	Gateway GatewayConfig `yaml:"gateway" toml:"gateway"`
	Stream  StreamConfig  `yaml:"stream" toml:"stream"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// GatewayConfig identifies the event stream to connect to
type GatewayConfig struct {
	// URL is the stream endpoint. The client treats it as opaque; auth
	// tokens or routing baked into it are someone else's business.
	URL string `yaml:"url" toml:"url"`

	// Transport selects the wire protocol: "sse" (default) or "websocket".
	Transport string `yaml:"transport" toml:"transport"`

	// Headers are extra headers sent on every dial, e.g. Authorization.
	Headers map[string]string `yaml:"headers" toml:"headers"`
}

// StreamConfig holds reconnection and staleness tuning
type StreamConfig struct {
	MaxRetries       int  `yaml:"max_retries" toml:"max_retries"`
	ConstantBackoff  bool `yaml:"constant_backoff" toml:"constant_backoff"`
	DisableReconnect bool `yaml:"disable_reconnect" toml:"disable_reconnect"`

	InitialRetryDelay time.Duration `yaml:"-" toml:"-"`
	MaxRetryDelay     time.Duration `yaml:"-" toml:"-"`
	DialTimeout       time.Duration `yaml:"-" toml:"-"`
	HeartbeatInterval time.Duration `yaml:"-" toml:"-"`
	StaleThreshold    time.Duration `yaml:"-" toml:"-"`

	// Raw string values for file unmarshaling
	InitialRetryDelayRaw string `yaml:"initial_retry_delay" toml:"initial_retry_delay"`
	MaxRetryDelayRaw     string `yaml:"max_retry_delay" toml:"max_retry_delay"`
	DialTimeoutRaw       string `yaml:"dial_timeout" toml:"dial_timeout"`
	HeartbeatIntervalRaw string `yaml:"heartbeat_interval" toml:"heartbeat_interval"`
	StaleThresholdRaw    string `yaml:"stale_threshold" toml:"stale_threshold"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Files ending in .toml are parsed as TOML; everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded. Duration
// strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw file content
	expanded := expandEnvVars(string(data))

	var cfg Config
	if filepath.Ext(path) == ".toml" {
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. If the environment variable is not set, it is
// replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and
// valid. Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Gateway.URL == "" {
		return fmt.Errorf("gateway.url is required")
	}

	switch c.Gateway.Transport {
	case "", "sse", "websocket":
	default:
		return fmt.Errorf("gateway.transport must be \"sse\" or \"websocket\", got %q", c.Gateway.Transport)
	}

	if strings.HasPrefix(c.Gateway.URL, "ws://") || strings.HasPrefix(c.Gateway.URL, "wss://") {
		if c.Gateway.Transport == "sse" {
			return fmt.Errorf("gateway.url %q is a websocket URL but transport is \"sse\"", c.Gateway.URL)
		}
	}

	if c.Stream.MaxRetries < 0 {
		return fmt.Errorf("stream.max_retries must be non-negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"initial_retry_delay", cfg.Stream.InitialRetryDelayRaw, &cfg.Stream.InitialRetryDelay},
		{"max_retry_delay", cfg.Stream.MaxRetryDelayRaw, &cfg.Stream.MaxRetryDelay},
		{"dial_timeout", cfg.Stream.DialTimeoutRaw, &cfg.Stream.DialTimeout},
		{"heartbeat_interval", cfg.Stream.HeartbeatIntervalRaw, &cfg.Stream.HeartbeatInterval},
		{"stale_threshold", cfg.Stream.StaleThresholdRaw, &cfg.Stream.StaleThreshold},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return nil
}
