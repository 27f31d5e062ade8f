package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/doomscroll/doomscroll/internal/scroll"
	"github.com/doomscroll/doomscroll/internal/watcher"
	"github.com/doomscroll/doomscroll/pkg/models"
)

type replaySummary struct {
	Events     int    `json:"events"`
	Skipped    int    `json:"skipped"`
	Accepted   int    `json:"accepted"`
	Suppressed int    `json:"suppressed"`
	Foreground int    `json:"foreground"`
	Ignored    int    `json:"ignored"`
	Count      uint64 `json:"count"`
}

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Replay a recorded event log through the tracker",
	Long: `Run a JSON Lines event log through a fresh tracker on virtual time.
Event timestamps drive the cooldown clock, so a replay gives the same
count the daemon would have produced live. Use - to read stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var in io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open event log: %w", err)
			}
			defer f.Close()
			in = f
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		sum, err := replay(in, cfg.TrackerOptions(), cmd.OutOrStdout(), jsonOutput)
		if err != nil {
			return err
		}
		if jsonOutput {
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Replayed %d events (%d skipped)\n", sum.Events, sum.Skipped)
		fmt.Fprintf(out, "   Accepted:   %d\n", sum.Accepted)
		fmt.Fprintf(out, "   Suppressed: %d\n", sum.Suppressed)
		fmt.Fprintf(out, "   Foreground: %d\n", sum.Foreground)
		fmt.Fprintf(out, "   Ignored:    %d\n", sum.Ignored)
		fmt.Fprintf(out, "   Final count: %d\n", sum.Count)
		return nil
	},
}

// replay feeds every event in r to a tracker driven by a ManualScheduler.
// Events without a timestamp do not move the clock. Readings are written to
// out as text lines, or as JSON lines when asJSON is set.
func replay(r io.Reader, opts scroll.Options, out io.Writer, asJSON bool) (*replaySummary, error) {
	events, skipped, err := watcher.ReadEvents(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}

	start := time.Unix(0, 0).UTC()
	for _, e := range events {
		if !e.Timestamp.IsZero() {
			start = e.Timestamp
			break
		}
	}
	sched := scroll.NewManualScheduler(start)
	opts.Scheduler = sched
	opts.Clock = sched.Now

	tracker, err := scroll.New(opts)
	if err != nil {
		return nil, err
	}

	enc := json.NewEncoder(out)
	var writeErr error
	tracker.Subscribe(scroll.SubscriberFunc(func(reading models.Reading) {
		if writeErr != nil {
			return
		}
		if asJSON {
			writeErr = enc.Encode(reading)
			return
		}
		_, writeErr = fmt.Fprintf(out, "%s  #%d  %.1f ft  %s\n",
			reading.At.Format(time.RFC3339Nano), reading.Count, reading.Feet, reading.Landmark)
	}))

	sum := &replaySummary{Events: len(events), Skipped: skipped}
	for _, e := range events {
		if !e.Timestamp.IsZero() {
			sched.AdvanceTo(e.Timestamp)
		}
		switch tracker.Deliver(e) {
		case scroll.AcceptScroll:
			sum.Accepted++
		case scroll.SuppressScroll:
			sum.Suppressed++
		case scroll.NotifyForeground:
			sum.Foreground++
		default:
			sum.Ignored++
		}
	}
	if writeErr != nil {
		return nil, writeErr
	}
	sum.Count = tracker.Count()
	return sum, nil
}

func init() {
	replayCmd.Flags().Bool("json", false, "Write readings as JSON lines")
}
