package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/labctl/internal/app"
	"github.com/example/labctl/internal/wire"
)

// CheckCmd returns the check command
func CheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the environment can run labs",
		Long: `Check that the required tools are installed and the docker daemon
is reachable. Lab creation runs the same checks before touching anything.

Examples:
  labctl check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			results := wire.Preflight().Run(ctx)
			for _, r := range results {
				if r.OK {
					fmt.Printf("%s %s\n", okMark, r.Name)
				} else {
					fmt.Printf("%s %s: %s\n", failMark, r.Name, r.Detail)
				}
			}

			if fail := app.FirstFailure(results); fail != nil {
				return fmt.Errorf("environment not ready")
			}

			s := wire.Settings()
			fmt.Println("\nSettings:")
			fmt.Printf("  worktree_dir: %s\n", s.WorktreeDir)
			fmt.Printf("  docker_image: %s\n", s.DockerImage)
			fmt.Printf("  base_port:    %d\n", s.BasePort)
			switch {
			case s.ProjectSettingsUsed && s.GlobalSettingsUsed:
				fmt.Println("  (from project and global settings files)")
			case s.ProjectSettingsUsed:
				fmt.Println("  (from project settings file)")
			case s.GlobalSettingsUsed:
				fmt.Println("  (from global settings file)")
			default:
				fmt.Println("  (defaults; run labctl init to customize)")
			}

			fmt.Println("\nEnvironment ready.")
			return nil
		},
	}
}
