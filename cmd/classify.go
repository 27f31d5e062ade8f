package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/doomscroll/doomscroll/internal/scroll"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <count>",
	Short: "Convert a scroll count into feet and a landmark",
	Long: `Convert a number of accepted scrolls into feet and place it against the
configured landmark table.

Examples:
  doomscroll classify 1
  doomscroll classify 420 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("count must be a non-negative integer: %q", args[0])
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		tracker, err := scroll.New(cfg.TrackerOptions())
		if err != nil {
			return err
		}

		r := tracker.Classify(count)
		out := cmd.OutOrStdout()

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			data, _ := json.MarshalIndent(r, "", "  ")
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintf(out, "📏 %d scrolls = %.1f ft\n", r.Count, r.Feet)
		fmt.Fprintf(out, "   %s\n", r.Landmark)
		return nil
	},
}

func init() {
	classifyCmd.Flags().Bool("json", false, "Output as JSON")
}
