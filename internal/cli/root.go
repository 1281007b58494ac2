package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "taskboard",
	Short: "Taskboard - CSV-backed task board with GitHub mirroring",
	Long: `Taskboard manages a lightweight task board stored in a local CSV file
and mirrored to a GitHub repository through the contents API.

It provides CLI commands for adding, editing, closing, and deleting tasks,
finding closing candidates, syncing the board, and browsing the audit trail.`,
}

// actorFlag holds the global --actor value recorded in commits and audit rows.
var actorFlag string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("taskboard %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&actorFlag, "actor", "", "Name recorded as the acting user in audit rows and commit messages")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
