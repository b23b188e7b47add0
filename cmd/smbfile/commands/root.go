// Package commands implements the CLI commands for the smbfile tool.
package commands

import (
	"net/http"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/marmos91/smbfile/internal/logger"
	"github.com/marmos91/smbfile/pkg/config"
	"github.com/marmos91/smbfile/pkg/metrics"
	"github.com/marmos91/smbfile/pkg/smb/loopback"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// cfg is populated by the root command's PersistentPreRunE and read by
// every subcommand.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "smbfile",
	Short: "File access over a local file session",
	Long: `smbfile reads, writes and inspects files through a file session,
using the same handle semantics a remote share would provide.

Use "smbfile [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}

		// Flags take precedence over file and environment values.
		if root, _ := cmd.Flags().GetString("root"); root != "" {
			loaded.Session.Root = root
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			loaded.Logging.Level = level
		}

		if err := logger.Init(loaded.Logging); err != nil {
			return err
		}

		if loaded.Metrics.Enabled {
			metrics.InitRegistry()
			serveMetrics(loaded.Metrics.ListenAddress)
		}

		cfg = loaded
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// openSession starts a session over the configured root directory.
// The caller owns the returned session and must Close it.
func openSession() *loopback.Session {
	return loopback.New(loopback.Config{
		FS:           osfs.New(cfg.Session.Root),
		MaxReadSize:  cfg.Session.MaxReadSize.Uint32(),
		MaxWriteSize: cfg.Session.MaxWriteSize.Uint32(),
		QueueDepth:   cfg.Session.QueueDepth,
	})
}

// serveMetrics exposes the Prometheus registry in the background for the
// lifetime of the process. Useful when watching long transfers.
func serveMetrics(addr string) {
	handler := promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})

	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			logger.Warn("metrics endpoint stopped", logger.KeyError, err)
		}
	}()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/smbfile/config.yaml)")
	rootCmd.PersistentFlags().String("root", "", "Directory served by the session (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Minimum log level: DEBUG, INFO, WARN, ERROR")

	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(truncateCmd)
	rootCmd.AddCommand(versionCmd)
}
