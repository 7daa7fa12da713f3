// Package config loads process configuration by layering defaults, an
// optional YAML file, and SWINGBOOK_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "SWINGBOOK_"

// Config contains process configuration.
type Config struct {
	// DatabasePath locates the SQLite ledger file.
	DatabasePath string `koanf:"database_path"`

	// TemplatesFile is the default template definitions YAML.
	TemplatesFile string `koanf:"templates_file"`

	// DeviceType is stamped on sessions when ingest is not told otherwise.
	DeviceType string `koanf:"device_type"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DatabasePath:  "swingbook.db",
		TemplatesFile: "templates.yaml",
		DeviceType:    "Rapsodo MLM2Pro",
		LogLevel:      "info",
	}
}

// Load layers configuration sources, lowest precedence first:
//  1. defaults
//  2. YAML file at path, or at SWINGBOOK_CONFIG when path is empty
//  3. SWINGBOOK_* environment variables
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// SWINGBOOK_DATABASE_PATH -> database_path, matching the koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	cfg := *Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path must not be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level: %s", c.LogLevel)
	}
	return nil
}
