package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// deleteConfirmFlag holds the --confirm value; deletion refuses to run
// unless it spells DELETE.
var deleteConfirmFlag string

var deleteCmd = &cobra.Command{
	Use:   "delete <task-id> [task-id...]",
	Short: "Permanently remove tasks from the board",
	Long: `Remove the given tasks from the board. This is irreversible, so the
command refuses to run unless --confirm DELETE is passed. Each removed
task leaves an audit record carrying its last known field values.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return fmt.Errorf("board service not initialized")
		}

		var err error
		if len(args) == 1 {
			err = Service.Delete(cmd.Context(), session(), args[0], deleteConfirmFlag)
		} else {
			err = Service.DeleteBulk(cmd.Context(), session(), args, deleteConfirmFlag)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Deleted %d task(s)\n", len(args))
		return nil
	},
}

func init() {
	deleteCmd.Flags().StringVar(&deleteConfirmFlag, "confirm", "", "Must be DELETE to proceed")
	rootCmd.AddCommand(deleteCmd)
}
