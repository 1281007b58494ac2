package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// syncAuditFlag also pushes the audit file when set.
var syncAuditFlag bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push the local board to the GitHub remote",
	Long: `Push the local tasks file to the configured GitHub repository without
changing any task. If the remote moved since the last read, the two
tables are merged record by record and the push is retried once.

Pass --audit to also push the audit file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return fmt.Errorf("board service not initialized")
		}
		if Cfg == nil || !Cfg.GitHub.Configured() {
			return fmt.Errorf("github sync is not configured; set github.token, github.owner, and github.repo")
		}

		if err := Service.SyncNow(cmd.Context(), session(), syncAuditFlag); err != nil {
			return err
		}

		fmt.Println("Synced board to remote.")
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncAuditFlag, "audit", false, "Also push the audit file")
	rootCmd.AddCommand(syncCmd)
}
