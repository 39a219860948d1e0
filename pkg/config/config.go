// Package config loads jvmcore.toml.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the configuration file.
const FileName = "jvmcore.toml"

// EnvLogLevel overrides the configured log level.
const EnvLogLevel = "JVMCORE_LOG_LEVEL"

// Config is the jvmcore configuration.
type Config struct {
	Runtime RuntimeConfig `toml:"runtime"`
	Session SessionConfig `toml:"session"`
	Log     LogConfig     `toml:"log"`
}

// RuntimeConfig configures the VM.
type RuntimeConfig struct {
	// Descriptors lists YAML descriptor files, relative to the config file.
	Descriptors   []string `toml:"descriptors"`
	Main          string   `toml:"main"`
	MaxFrameDepth int      `toml:"max_frame_depth"`
}

// SessionConfig configures the session client.
type SessionConfig struct {
	Address string `toml:"address"`
	Port    int    `toml:"port"`
	// Endpoint, when set, is a multiaddr that replaces Address and Port.
	Endpoint        string   `toml:"endpoint"`
	Sentinel        string   `toml:"sentinel"`
	DialTimeout     Duration `toml:"dial_timeout"`
	MaxReadFailures int      `toml:"max_read_failures"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a string such as "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			Main:          "Demo",
			MaxFrameDepth: 1024,
		},
		Session: SessionConfig{
			Address:     "127.0.0.1",
			Port:        5000,
			Sentinel:    "Over",
			DialTimeout: Duration{5 * time.Second},
		},
		Log: LogConfig{Level: "info"},
	}
}

// FindAndLoad searches startDir and its parents for jvmcore.toml and loads
// it. Without a file it returns the defaults and an empty path.
func FindAndLoad(startDir string) (*Config, string, error) {
	path := FindConfigFile(startDir)
	if path == "" {
		return DefaultConfig(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// FindConfigFile searches startDir and its parents for jvmcore.toml.
func FindConfigFile(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads the file at path over the defaults. Unknown keys are an
// error. Relative descriptor paths are resolved against the file's
// directory.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	dir := filepath.Dir(path)
	for i, d := range cfg.Runtime.Descriptors {
		if !filepath.IsAbs(d) {
			cfg.Runtime.Descriptors[i] = filepath.Join(dir, d)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv applies environment overrides read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if level := getenv(EnvLogLevel); level != "" {
		c.Log.Level = level
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Runtime.MaxFrameDepth < 0 {
		return fmt.Errorf("runtime.max_frame_depth must not be negative")
	}
	if c.Session.Endpoint == "" && (c.Session.Port <= 0 || c.Session.Port > 65535) {
		return fmt.Errorf("session.port %d out of range", c.Session.Port)
	}
	if c.Session.MaxReadFailures < 0 {
		return fmt.Errorf("session.max_read_failures must not be negative")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses the configured level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
