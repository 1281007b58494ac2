package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// candidatesCloseFlag closes every candidate after listing when set.
var candidatesCloseFlag bool

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List tasks that look ready to close",
	Long: `List in-progress tasks that mention an awaiting-reply keyword in their
next action or notes and have not been updated recently. These are the
tasks most likely waiting on a reply that already arrived, or that were
quietly resolved.

Pass --close to close every listed candidate in one step.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return fmt.Errorf("board service not initialized")
		}

		tasks, err := Service.Candidates()
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			fmt.Println("No closing candidates.")
			return nil
		}

		printTaskTable(os.Stdout, tasks)

		if !candidatesCloseFlag {
			return nil
		}

		ids := make([]string, 0, len(tasks))
		for _, t := range tasks {
			ids = append(ids, t.ID)
		}
		closed, err := Service.CloseTasks(cmd.Context(), session(), ids)
		if err != nil {
			return err
		}
		fmt.Printf("Closed %d candidate(s)\n", len(closed))
		return nil
	},
}

func init() {
	candidatesCmd.Flags().BoolVar(&candidatesCloseFlag, "close", false, "Close every listed candidate")
	rootCmd.AddCommand(candidatesCmd)
}
