package config

import (
	"strings"

	"github.com/marmos91/smbfile/internal/bytesize"
	"github.com/marmos91/smbfile/internal/logger"
	"github.com/marmos91/smbfile/pkg/smb/loopback"
)

// ApplyDefaults fills unspecified configuration fields with defaults.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applySessionDefaults(&cfg.Session)
	applyMetricsDefaults(&cfg.Metrics)
}

func applyLoggingDefaults(cfg *logger.Config) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applySessionDefaults(cfg *SessionConfig) {
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.MaxReadSize == 0 {
		cfg.MaxReadSize = bytesize.ByteSize(loopback.DefaultMaxTransferSize)
	}
	if cfg.MaxWriteSize == 0 {
		cfg.MaxWriteSize = bytesize.ByteSize(loopback.DefaultMaxTransferSize)
	}
	if cfg.QueueDepth == 0 {
		cfg.QueueDepth = loopback.DefaultQueueDepth
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false, nothing to set
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":9090"
	}
}

// GetDefaultConfig returns a configuration populated entirely from defaults.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
