package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/doomscroll/doomscroll/internal/logging"
	"github.com/doomscroll/doomscroll/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a running daemon in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client := tui.NewClient(cfg.ServerAddr(), cfg.Server.AuthToken, logging.Discard())
		p := tea.NewProgram(tui.New(client, cfg.Tracker.AppID), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}
