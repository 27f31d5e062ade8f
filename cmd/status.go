package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/doomscroll/doomscroll/internal/presence"
	"github.com/doomscroll/doomscroll/internal/store"
	"github.com/doomscroll/doomscroll/pkg/models"
)

type statusReport struct {
	Version    string          `json:"version"`
	AppID      string          `json:"app"`
	AppRunning bool            `json:"appRunning"`
	Session    *models.Session `json:"session,omitempty"`
	Stats      *store.Stats    `json:"stats,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest session and journal statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		report := statusReport{Version: version, AppID: cfg.Tracker.AppID}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
		defer cancel()
		report.AppRunning, _ = presence.NewChecker().Running(ctx, cfg.Tracker.AppID)

		if _, err := os.Stat(cfg.Journal.Path); err == nil {
			s, err := store.New(cfg.Journal.Path)
			if err != nil {
				return fmt.Errorf("failed to open journal: %w", err)
			}
			defer s.Close()

			if report.Session, err = s.LatestSession(); err != nil {
				return fmt.Errorf("failed to read latest session: %w", err)
			}
			if report.Stats, err = s.GetStats(); err != nil {
				return fmt.Errorf("failed to get stats: %w", err)
			}
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			data, _ := json.MarshalIndent(report, "", "  ")
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintln(out, "📜 doomscroll Status")
		fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━")
		fmt.Fprintf(out, "   Version:    %s\n", version)
		fmt.Fprintf(out, "   App:        %s (%s)\n", report.AppID, runningLabel(report.AppRunning))

		if report.Stats == nil {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "❌ No journal yet")
			fmt.Fprintln(out, "   Run 'doomscroll init' to get started")
			return nil
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, "📏 Latest Session")
		fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━")
		if sess := report.Session; sess == nil {
			fmt.Fprintln(out, "   No sessions recorded")
		} else {
			fmt.Fprintf(out, "   Started:    %s\n", sess.StartedAt.Local().Format("2006-01-02 15:04"))
			fmt.Fprintf(out, "   Scrolls:    %d\n", sess.Count)
			fmt.Fprintf(out, "   Distance:   %.1f ft\n", sess.Feet)
			if sess.Landmark != "" {
				fmt.Fprintf(out, "   Landmark:   %s\n", sess.Landmark)
			}
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, "📊 All Time")
		fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━")
		fmt.Fprintf(out, "   Sessions:   %d\n", report.Stats.Sessions)
		fmt.Fprintf(out, "   Scrolls:    %d\n", report.Stats.TotalScrolls)
		fmt.Fprintf(out, "   Distance:   %.1f ft\n", report.Stats.TotalFeet)
		fmt.Fprintf(out, "   Longest:    %d scrolls\n", report.Stats.LongestScroll)

		return nil
	},
}

func runningLabel(running bool) string {
	if running {
		return "🟢 running"
	}
	return "🔴 not running"
}

func init() {
	statusCmd.Flags().Bool("json", false, "Output as JSON")
}
