package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

var (
	listStatusFlag  string
	listOwnerFlag   []string
	listKeywordFlag string
	listFormatFlag  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, most recently updated first",
	Long: `List the tasks on the board, most recently updated first.

Filter by status, owner, or a keyword matched against the title, notes,
and next action. Use --format csv for machine-readable output.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return fmt.Errorf("board service not initialized")
		}

		tasks, err := Service.List(core.ListFilter{
			Status:  models.TaskStatus(listStatusFlag),
			Owners:  listOwnerFlag,
			Keyword: listKeywordFlag,
		})
		if err != nil {
			return err
		}

		switch listFormatFlag {
		case "csv":
			return printTaskCSV(os.Stdout, tasks)
		case "table", "":
			if len(tasks) == 0 {
				fmt.Println("No tasks match.")
				return nil
			}
			printTaskTable(os.Stdout, tasks)
			return nil
		default:
			return fmt.Errorf("unknown format %q, must be table or csv", listFormatFlag)
		}
	},
}

func init() {
	listCmd.Flags().StringVar(&listStatusFlag, "status", "", "Filter by status")
	listCmd.Flags().StringSliceVar(&listOwnerFlag, "owner", nil, "Filter by owner (repeatable)")
	listCmd.Flags().StringVar(&listKeywordFlag, "keyword", "", "Filter by keyword in title, notes, or next action")
	listCmd.Flags().StringVar(&listFormatFlag, "format", "table", "Output format: table or csv")
	_ = listCmd.RegisterFlagCompletionFunc("status", completeStatuses)

	rootCmd.AddCommand(listCmd)
}
