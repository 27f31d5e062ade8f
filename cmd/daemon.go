package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/doomscroll/doomscroll/internal/agent"
	"github.com/doomscroll/doomscroll/internal/config"
	"github.com/doomscroll/doomscroll/pkg/models"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the doomscroll background daemon",
	Long:  `Start the doomscroll daemon or check whether one is serving readings.`,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the doomscroll daemon",
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

		a, err := agent.New(agent.FromConfig(cfg), logger.Logger)
		if err != nil {
			return fmt.Errorf("failed to create agent: %w", err)
		}
		if err := a.Start(); err != nil {
			return fmt.Errorf("failed to start agent: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "📜 doomscroll daemon watching %s\n", cfg.Tracker.AppID)
		if cfg.Server.Enabled {
			fmt.Fprintf(cmd.OutOrStdout(), "   Readings on ws://%s/ws\n", cfg.ServerAddr())
		}
		fmt.Fprintln(cmd.OutOrStdout(), "   Press Ctrl+C to stop")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		a.Wait(ctx)

		fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Stopped after %d scrolls\n", a.Tracker().Count())
		return nil
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Ask a running daemon for its current reading",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Server.Enabled {
			return fmt.Errorf("the reading server is disabled in the config")
		}

		app, r, err := fetchReading(cfg, 2*time.Second)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "🔴 No daemon at %s (%v)\n", cfg.ServerAddr(), err)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🟢 Running for %s\n", app)
		fmt.Fprintf(cmd.OutOrStdout(), "   %d scrolls, %.1f ft\n", r.Count, r.Feet)
		if r.Landmark != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "   %s\n", r.Landmark)
		}
		return nil
	},
}

// fetchReading reads the daemon's current snapshot over HTTP.
func fetchReading(cfg *config.Config, timeout time.Duration) (string, models.Reading, error) {
	req, err := http.NewRequest(http.MethodGet, "http://"+cfg.ServerAddr()+"/api/reading", nil)
	if err != nil {
		return "", models.Reading{}, err
	}
	if cfg.Server.AuthToken != "" {
		req.Header.Set("X-Doomscroll-Token", cfg.Server.AuthToken)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", models.Reading{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", models.Reading{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var body struct {
		App     string         `json:"app"`
		Payload models.Reading `json:"payload"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", models.Reading{}, fmt.Errorf("failed to decode reading: %w", err)
	}
	return body.App, body.Payload, nil
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
}
