package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/labctl/internal/config"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default settings file",
		Long: `Write a documented default settings file.

Without flags the file goes to .lab/settings.yaml in the current directory;
with --global it goes to ~/.lab/settings.yaml. Project settings override
global ones. An existing file is never overwritten.

Examples:
  labctl init
  labctl init --global`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			if global {
				dir, err = os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("failed to get home directory: %w", err)
				}
			}

			path, err := config.WriteDefaultSettings(dir)
			if err != nil {
				return err
			}
			fmt.Printf("%s Wrote %s\n", okMark, path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "write ~/.lab/settings.yaml instead of the project file")

	return cmd
}
