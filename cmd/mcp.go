package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doomscroll/doomscroll/internal/mcp"
	"github.com/doomscroll/doomscroll/internal/scroll"
	"github.com/doomscroll/doomscroll/internal/store"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI tool integration.

This is typically spawned by an AI tool. The server communicates over stdio
and answers from the journal and the configured landmark table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Close()

		tracker, err := scroll.New(cfg.TrackerOptions())
		if err != nil {
			return err
		}

		var s *store.Store
		if _, err := os.Stat(cfg.Journal.Path); err == nil {
			s, err = store.New(cfg.Journal.Path)
			if err != nil {
				return fmt.Errorf("failed to open journal: %w", err)
			}
			defer s.Close()
		}

		server := mcp.NewServer(s, tracker, cmd.InOrStdin(), cmd.OutOrStdout(), version, logger.Logger)
		return server.Run()
	},
}
