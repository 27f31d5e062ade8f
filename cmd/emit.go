package cmd

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/doomscroll/doomscroll/internal/watcher"
	"github.com/doomscroll/doomscroll/pkg/models"
)

var emitCmd = &cobra.Command{
	Use:   "emit <kind>",
	Short: "Inject a host event into a running daemon",
	Long: `Write one event to the spool file, or broadcast it on the session bus.

Kinds: scroll, foreground_changed (aliases: scroll_signal, view_scrolled,
foreground, window_state_changed).

Examples:
  doomscroll emit scroll
  doomscroll emit foreground --app com.instagram.android
  doomscroll emit scroll --dbus`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := models.ParseEventKind(args[0])
		if kind == models.EventUnknown {
			return fmt.Errorf("unknown event kind %q", args[0])
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		app, _ := cmd.Flags().GetString("app")
		if app == "" {
			app = cfg.Tracker.AppID
		}
		useDBus, _ := cmd.Flags().GetBool("dbus")

		e := models.Event{
			ID:        ulid.Make().String(),
			Kind:      kind,
			AppID:     app,
			Timestamp: time.Now().UTC(),
		}

		if useDBus {
			if err := watcher.EmitSignal(e); err != nil {
				return fmt.Errorf("failed to emit signal: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📡 Signalled %s for %s\n", kind, app)
			return nil
		}

		if err := watcher.AppendEvent(cfg.Sources.Spool.Path, e); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Spooled %s for %s (%s)\n", kind, app, e.ID)
		return nil
	},
}

func init() {
	emitCmd.Flags().StringP("app", "a", "", "App identifier (default is the tracked app)")
	emitCmd.Flags().Bool("dbus", false, "Broadcast on the session D-Bus instead of the spool")
}
