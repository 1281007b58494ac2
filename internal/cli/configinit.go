package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskboard/internal/core"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the board configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a .taskboard.yaml seeded with defaults",
	Long: `Write a .taskboard.yaml file in the current directory, seeded with the
default configuration. Edit it to point at your CSV files and GitHub
repository. The GitHub token can also come from the TASKBOARD_GITHUB_TOKEN
environment variable, which keeps it out of the file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(".", ".taskboard.yaml")
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}

		out, err := core.RenderConfigYAML(core.DefaultConfig())
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}

		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing .taskboard.yaml")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
