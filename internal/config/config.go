// Package config loads the burrow daemon configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fentz26/burrow/internal/scheduler"
	"github.com/fentz26/burrow/internal/security"
	"github.com/fentz26/burrow/internal/workplace"
	"gopkg.in/yaml.v3"
)

// Config is the root daemon configuration.
type Config struct {
	Scheduler scheduler.Config `yaml:"scheduler"`
	Security  security.Config  `yaml:"security"`
	Workplace workplace.Config `yaml:"workplace"`
	Roster    RosterConfig     `yaml:"roster"`
	Server    ServerConfig     `yaml:"server"`
	Store     StoreConfig      `yaml:"store"`
	Log       LogConfig        `yaml:"log"`
	Tracing   TracingConfig    `yaml:"tracing"`
}

// RosterConfig controls the bed assignment loop.
type RosterConfig struct {
	BedInterval time.Duration `yaml:"bed_interval"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig locates the decision journal. An empty path disables it.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string         `yaml:"level"`
	Format      string         `yaml:"format"`
	Outputs     []string       `yaml:"outputs"`
	Development bool           `yaml:"development"`
	Rotation    RotationConfig `yaml:"rotation"`
}

// RotationConfig configures lumberjack for file outputs.
type RotationConfig struct {
	Enable     bool   `yaml:"enable"`
	Filename   string `yaml:"filename"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// TracingConfig enables the stdout span exporter.
type TracingConfig struct {
	Enable bool   `yaml:"enable"`
	Output string `yaml:"output"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Scheduler: *scheduler.DefaultConfig(),
		Security:  *security.DefaultConfig(),
		Workplace: *workplace.DefaultConfig(),
		Roster:    RosterConfig{BedInterval: 1100 * time.Millisecond},
		Server: ServerConfig{
			Addr:            "127.0.0.1:7468",
			ShutdownTimeout: 5 * time.Second,
		},
		Store: StoreConfig{Path: filepath.Join(Dir(), "burrow.db")},
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
		},
	}
}

// Dir returns ~/.burrow, or .burrow when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".burrow"
	}
	return filepath.Join(home, ".burrow")
}

// DefaultPath returns ~/.burrow/config.yaml.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads configuration from a YAML file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save writes cfg to path, creating parent directories if needed.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if err := c.Security.Validate(); err != nil {
		return fmt.Errorf("security: %w", err)
	}
	if err := c.Workplace.Validate(); err != nil {
		return fmt.Errorf("workplace: %w", err)
	}
	if c.Roster.BedInterval <= 0 {
		return fmt.Errorf("roster: bed_interval must be positive")
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server: addr is required")
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("log: invalid format %q, must be: console or json", c.Log.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log: invalid level %q", c.Log.Level)
	}
	return nil
}
