package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

var editCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Edit fields of an existing task",
	Long: `Edit one or more fields of an existing task. Only the flags you pass
are changed; everything else is left as it was. The updated timestamp is
stamped with the current time.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return fmt.Errorf("board service not initialized")
		}

		var changes core.TaskChanges
		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			changes.Title = &v
		}
		if cmd.Flags().Changed("status") {
			v, _ := cmd.Flags().GetString("status")
			s := models.TaskStatus(v)
			changes.Status = &s
		}
		if cmd.Flags().Changed("owner") {
			v, _ := cmd.Flags().GetString("owner")
			changes.Owner = &v
		}
		if cmd.Flags().Changed("next") {
			v, _ := cmd.Flags().GetString("next")
			changes.NextAction = &v
		}
		if cmd.Flags().Changed("notes") {
			v, _ := cmd.Flags().GetString("notes")
			changes.Notes = &v
		}
		if cmd.Flags().Changed("source") {
			v, _ := cmd.Flags().GetString("source")
			changes.Source = &v
		}

		task, err := Service.Update(cmd.Context(), session(), args[0], changes)
		if err != nil {
			return err
		}

		fmt.Printf("Updated task %s\n", task.ID)
		fmt.Printf("  Title:   %s\n", task.Title)
		fmt.Printf("  Status:  %s\n", task.Status)
		fmt.Printf("  Updated: %s\n", formatTime(task.UpdatedAt))
		return nil
	},
}

func init() {
	editCmd.Flags().String("title", "", "New title")
	editCmd.Flags().String("status", "", "New status (not_started, in_progress, closed)")
	editCmd.Flags().String("owner", "", "New owner")
	editCmd.Flags().String("next", "", "New next action")
	editCmd.Flags().String("notes", "", "New notes")
	editCmd.Flags().String("source", "", "New source")
	_ = editCmd.RegisterFlagCompletionFunc("status", completeStatuses)

	rootCmd.AddCommand(editCmd)
}
