// Package config loads restq settings from defaults, an optional YAML file
// and RESTQ_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override: RESTQ_HTTP_TIMEOUT sets
// http.timeout.
const EnvPrefix = "RESTQ_"

// PathEnvVar names a config file to load when none is given explicitly.
const PathEnvVar = "RESTQ_CONFIG"

// DefaultPaths are searched, in order, when no path is given.
var DefaultPaths = []string{"restq.yaml", "restq.yml"}

// Config is the full client configuration.
type Config struct {
	BaseURL string        `koanf:"base_url" validate:"omitempty,url"`
	Auth    AuthConfig    `koanf:"auth"`
	HTTP    HTTPConfig    `koanf:"http"`
	Breaker BreakerConfig `koanf:"breaker"`
	Log     LogConfig     `koanf:"log"`
	Journal JournalConfig `koanf:"journal"`
}

// AuthConfig sets the Authorization header sent with every request.
type AuthConfig struct {
	Scheme string `koanf:"scheme" validate:"omitempty,oneof=Bearer Basic Token"`
	Token  string `koanf:"token"`
}

// HTTPConfig tunes the HTTP transport. A zero rate limit disables limiting.
type HTTPConfig struct {
	Timeout   time.Duration `koanf:"timeout" validate:"gte=0"`
	RateLimit float64       `koanf:"rate_limit" validate:"gte=0"`
	Burst     int           `koanf:"burst" validate:"gte=1"`
}

// BreakerConfig mirrors transport.BreakerSettings.
type BreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MaxRequests  uint32        `koanf:"max_requests" validate:"gte=1"`
	Interval     time.Duration `koanf:"interval" validate:"gte=0"`
	Timeout      time.Duration `koanf:"timeout" validate:"gte=0"`
	MinRequests  uint32        `koanf:"min_requests" validate:"gte=1"`
	FailureRatio float64       `koanf:"failure_ratio" validate:"gt=0,lte=1"`
}

// LogConfig selects the log level and encoding.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// JournalConfig enables the SQLite exchange journal. With Replay set,
// requests are answered from the journal instead of the network.
type JournalConfig struct {
	Path   string `koanf:"path"`
	Replay bool   `koanf:"replay"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Auth: AuthConfig{Scheme: "Bearer"},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
			Burst:   1,
		},
		Breaker: BreakerConfig{
			Enabled:      false,
			MaxRequests:  3,
			Interval:     time.Minute,
			Timeout:      30 * time.Second,
			MinRequests:  10,
			FailureRatio: 0.6,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load layers defaults, the YAML file at path (or the first file found via
// RESTQ_CONFIG and DefaultPaths when path is empty) and RESTQ_* variables,
// then validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sections are the top-level keys whose first underscore separates the
// section from the field name.
var sections = []string{"auth", "http", "breaker", "log", "journal"}

// envTransform maps RESTQ_HTTP_RATE_LIMIT to http.rate_limit and
// RESTQ_BASE_URL to base_url. RESTQ_CONFIG is not a setting and is dropped.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "config" {
		return ""
	}
	for _, s := range sections {
		if rest, ok := strings.CutPrefix(key, s+"_"); ok {
			return s + "." + rest
		}
	}
	return key
}
