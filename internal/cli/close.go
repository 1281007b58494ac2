package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var closeCmd = &cobra.Command{
	Use:   "close <task-id> [task-id...]",
	Short: "Close one or more tasks",
	Long: `Transition the given tasks to the closed status. Closed tasks stay on
the board for the record; use delete to remove rows entirely.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return fmt.Errorf("board service not initialized")
		}

		closed, err := Service.CloseTasks(cmd.Context(), session(), args)
		if err != nil {
			return err
		}

		for _, t := range closed {
			fmt.Printf("Closed %s  %s\n", t.ID, t.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(closeCmd)
}
