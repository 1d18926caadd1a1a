// Package config layers server settings from defaults, an optional YAML
// file, and DROIDMCP_* environment variables, in that order. Command-line
// flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"

	"github.com/droidmcp/droidmcp/internal/adb"
)

// DefaultPath is checked when no config file is given explicitly.
const DefaultPath = "config.yaml"

// Config holds everything the server needs at startup.
type Config struct {
	// ADBAddr is the adb server address in host:port form.
	ADBAddr string `yaml:"adb_addr" env:"DROIDMCP_ADB_ADDR"`

	// DeviceSerial pins operations to one device. Empty auto-selects when
	// exactly one device is online.
	DeviceSerial string `yaml:"device_serial" env:"DROIDMCP_DEVICE_SERIAL"`

	// ArtifactsDir is where screenshots and pulled files are stored.
	ArtifactsDir string `yaml:"artifacts_dir" env:"DROIDMCP_ARTIFACTS_DIR"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"DROIDMCP_LOG_LEVEL"`

	// ShellTimeoutSeconds bounds a single device shell command.
	ShellTimeoutSeconds int `yaml:"shell_timeout_seconds" env:"DROIDMCP_SHELL_TIMEOUT_SECONDS"`

	// LogcatMaxLines caps get_logcat snapshots.
	LogcatMaxLines int `yaml:"logcat_max_lines" env:"DROIDMCP_LOGCAT_MAX_LINES"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ADBAddr:             adb.DefaultServerAddr,
		ArtifactsDir:        "artifacts",
		LogLevel:            "info",
		ShellTimeoutSeconds: int(adb.DefaultShellTimeout / time.Second),
		LogcatMaxLines:      adb.DefaultLogcatLines,
	}
}

// Load builds the effective configuration. path may be empty, in which case
// DefaultPath is used if it exists; a missing explicit path is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No config file is fine; defaults plus env apply.
	default:
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return cfg, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	if c.ADBAddr == "" {
		return fmt.Errorf("adb_addr must not be empty")
	}
	if c.ArtifactsDir == "" {
		return fmt.Errorf("artifacts_dir must not be empty")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.ShellTimeoutSeconds <= 0 {
		return fmt.Errorf("shell_timeout_seconds must be positive")
	}
	if c.LogcatMaxLines <= 0 {
		return fmt.Errorf("logcat_max_lines must be positive")
	}
	return nil
}

// ShellTimeout returns the shell timeout as a duration.
func (c Config) ShellTimeout() time.Duration {
	return time.Duration(c.ShellTimeoutSeconds) * time.Second
}

// SlogLevel maps the configured level name to a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log_level %q (want debug, info, warn, or error)", c.LogLevel)
	}
}
