package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskboard/internal/observability"
)

var (
	eventsTypeFlag  string
	eventsLevelFlag string
	eventsSinceFlag string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the operational event log",
	Long: `Show the operational event log: syncs, conflicts, retries, and audit
warnings, as JSONL records written alongside the board. This is the
diagnostic counterpart to the audit command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not initialized")
		}

		filter := observability.EventFilter{
			Type:  eventsTypeFlag,
			Level: eventsLevelFlag,
		}
		if eventsSinceFlag != "" {
			since, err := time.Parse("2006-01-02", eventsSinceFlag)
			if err != nil {
				return fmt.Errorf("parsing --since: %w", err)
			}
			filter.Since = &since
		}

		events, err := EventLog.Read(filter)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No events match.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tLEVEL\tTYPE\tMESSAGE")
		for _, e := range events {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Time.Format("2006-01-02 15:04:05"), e.Level, e.Type, e.Message)
		}
		tw.Flush()
		return nil
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsTypeFlag, "type", "", "Filter by event type (e.g. sync.failed)")
	eventsCmd.Flags().StringVar(&eventsLevelFlag, "level", "", "Filter by level (INFO, WARN, ERROR)")
	eventsCmd.Flags().StringVar(&eventsSinceFlag, "since", "", "Only events on or after this date (YYYY-MM-DD)")

	rootCmd.AddCommand(eventsCmd)
}
