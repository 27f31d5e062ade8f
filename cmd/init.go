package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/doomscroll/doomscroll/internal/config"
	"github.com/doomscroll/doomscroll/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize doomscroll",
	Long: `Initialize doomscroll in your home directory.

This creates:
  ~/.doomscroll/config.yaml        - Configuration file
  ~/.doomscroll/events.jsonl       - Event spool (written by the event source)
  ~/.doomscroll/data/journal.db    - Session journal`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "📜 Initializing doomscroll...")

		cfg, created, err := config.LoadOrCreateAt(cfgFile)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintln(out, "   ✓ Created config")
		} else {
			fmt.Fprintln(out, "   ✓ Config exists")
		}

		dirs := []string{config.Dir()}
		if cfg.Sources.Spool.Enabled {
			dirs = append(dirs, filepath.Dir(cfg.Sources.Spool.Path))
		}
		if cfg.Journal.Enabled {
			dirs = append(dirs, filepath.Dir(cfg.Journal.Path))
		}
		for _, dir := range dirs {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
		fmt.Fprintln(out, "   ✓ Created directories")

		if cfg.Journal.Enabled {
			s, err := store.New(cfg.Journal.Path)
			if err != nil {
				return fmt.Errorf("failed to initialize journal: %w", err)
			}
			s.Close()
			fmt.Fprintln(out, "   ✓ Initialized journal")
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, "✅ doomscroll initialized!")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Next steps:")
		fmt.Fprintln(out, "  1. Start the daemon:  doomscroll daemon start")
		fmt.Fprintln(out, "  2. Follow along:      doomscroll watch")
		fmt.Fprintln(out, "  3. Feed it events:    doomscroll emit scroll")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "For MCP integration add to your MCP config:")
		fmt.Fprintln(out, `  {`)
		fmt.Fprintln(out, `    "mcpServers": {`)
		fmt.Fprintln(out, `      "doomscroll": {`)
		fmt.Fprintln(out, `        "command": "doomscroll",`)
		fmt.Fprintln(out, `        "args": ["mcp"]`)
		fmt.Fprintln(out, `      }`)
		fmt.Fprintln(out, `    }`)
		fmt.Fprintln(out, `  }`)

		return nil
	},
}
