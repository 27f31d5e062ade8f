package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doomscroll/doomscroll/internal/config"
	"github.com/doomscroll/doomscroll/internal/logging"
)

var (
	version = "0.1.0"
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "doomscroll",
	Short: "Count your doomscrolling in feet and landmarks",
	Long: `doomscroll watches a feed app for scroll gestures, debounces each burst
into a single scroll, and tells you how far you have gone: in feet, and
measured against landmarks from an igloo to the Burj Khalifa.

Events arrive from a spool file or the session D-Bus. Readings go to a local
websocket, a SQLite journal and any MCP-capable AI tool.`,
	Version:      version,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.doomscroll/config.yaml)")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(emitCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(mcpCmd)
}

// loadConfig reads the --config file, or the default location.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger from the logging section.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
}
