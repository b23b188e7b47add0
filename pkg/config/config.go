// Package config loads and validates smbfile configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (SMBFILE_*)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/marmos91/smbfile/internal/bytesize"
	"github.com/marmos91/smbfile/internal/logger"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config captures the static configuration of the smbfile tool.
type Config struct {
	// Logging controls log output behavior.
	Logging logger.Config `mapstructure:"logging" yaml:"logging"`

	// Session configures the file session: where files live and the
	// transfer ceilings negotiated for reads and writes.
	Session SessionConfig `mapstructure:"session" yaml:"session"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// SessionConfig configures the file session backing the CLI.
type SessionConfig struct {
	// Root is the directory served by the local session.
	// Default: current working directory.
	Root string `mapstructure:"root" validate:"required" yaml:"root"`

	// MaxReadSize is the negotiated ceiling for a single read transfer.
	// Accepts human-readable sizes like "1Mi" or "512Ki".
	MaxReadSize bytesize.ByteSize `mapstructure:"max_read_size" validate:"required" yaml:"max_read_size"`

	// MaxWriteSize is the negotiated ceiling for a single write transfer.
	MaxWriteSize bytesize.ByteSize `mapstructure:"max_write_size" validate:"required" yaml:"max_write_size"`

	// QueueDepth bounds the number of in-flight operations the session
	// accepts; submissions beyond it fail with a busy status.
	QueueDepth int `mapstructure:"queue_depth" validate:"gte=1" yaml:"queue_depth"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether operation metrics are collected.
	// Default: false (opt-in).
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// ListenAddress is the host:port the metrics endpoint binds to when
	// metrics are enabled.
	ListenAddress string `mapstructure:"listen_address" validate:"omitempty,hostname_port" yaml:"listen_address"`
}

// Load loads configuration from file, environment, and defaults.
//
// configPath may be empty, in which case the default location
// ($XDG_CONFIG_HOME/smbfile/config.yaml) is searched; a missing file is
// not an error and yields the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(byteSizeDecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig writes the configuration to path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures environment variable and config file handling.
func setupViper(v *viper.Viper, configPath string) {
	// Example: SMBFILE_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("SMBFILE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error); a missing file is not an error.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// byteSizeDecodeHook converts strings and integers to bytesize.ByteSize,
// so config files can use sizes like "1Mi", "64KB", or plain numbers.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.Parse(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or the current
// directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "smbfile")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "smbfile")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
