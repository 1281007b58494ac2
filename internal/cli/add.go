package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

var (
	addStatusFlag string
	addOwnerFlag  string
	addNextFlag   string
	addNotesFlag  string
	addSourceFlag string
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a new task to the board",
	Long: `Add a new task with the given title.

The task gets a generated ID, and its created and updated timestamps are
filled with the current time. The board is saved locally and mirrored to
GitHub when a remote is configured.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return fmt.Errorf("board service not initialized")
		}

		task, err := Service.Create(cmd.Context(), session(), core.TaskInput{
			Title:      args[0],
			Status:     models.TaskStatus(addStatusFlag),
			Owner:      addOwnerFlag,
			NextAction: addNextFlag,
			Notes:      addNotesFlag,
			Source:     addSourceFlag,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Added task %s\n", task.ID)
		fmt.Printf("  Title:  %s\n", task.Title)
		fmt.Printf("  Status: %s\n", task.Status)
		if task.Owner != "" {
			fmt.Printf("  Owner:  %s\n", task.Owner)
		}
		return nil
	},
}

// completeStatuses returns valid status values for shell completion.
func completeStatuses(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"not_started\tNot yet picked up",
		"in_progress\tCurrently being worked",
		"closed\tDone, kept for the record",
	}, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	addCmd.Flags().StringVar(&addStatusFlag, "status", "", "Initial status (default in_progress)")
	addCmd.Flags().StringVar(&addOwnerFlag, "owner", "", "Task owner")
	addCmd.Flags().StringVar(&addNextFlag, "next", "", "Next action for the task")
	addCmd.Flags().StringVar(&addNotesFlag, "notes", "", "Free-form notes")
	addCmd.Flags().StringVar(&addSourceFlag, "source", "", "Where the task came from (mail, chat, meeting, ...)")
	_ = addCmd.RegisterFlagCompletionFunc("status", completeStatuses)

	rootCmd.AddCommand(addCmd)
}
