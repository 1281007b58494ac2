package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskboard/internal/storage"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

var (
	auditTaskFlag   string
	auditActionFlag string
	auditJSONFlag   bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the audit trail of board changes",
	Long: `Show the append-only audit trail. Every create, update, close, and
delete leaves one row with before and after snapshots of the task.

Filter with --task or --action, and use --json for raw records.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Audit == nil {
			return fmt.Errorf("audit store not initialized")
		}

		records, err := Audit.Records(storage.AuditFilter{
			TaskID: auditTaskFlag,
			Action: models.AuditAction(auditActionFlag),
		})
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No audit records match.")
			return nil
		}

		if auditJSONFlag {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tACTOR\tACTION\tTASK")
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", formatTime(r.Time), r.Actor, r.Action, shortID(r.TaskID))
		}
		tw.Flush()
		return nil
	},
}

func init() {
	auditCmd.Flags().StringVar(&auditTaskFlag, "task", "", "Filter by task ID")
	auditCmd.Flags().StringVar(&auditActionFlag, "action", "", "Filter by action (create, update, close, delete, delete_bulk)")
	auditCmd.Flags().BoolVar(&auditJSONFlag, "json", false, "Print raw records as JSON")

	rootCmd.AddCommand(auditCmd)
}
