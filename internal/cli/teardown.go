package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/labctl/internal/ports/primary"
	"github.com/example/labctl/internal/wire"
)

// TeardownCmd returns the teardown command
func TeardownCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "teardown [name]",
		Short: "Destroy a lab environment",
		Long: `Destroy a lab: its cluster, worktree, tmux session, and proxy route.

Every teardown step is attempted even when earlier steps fail, and the
registry entry is removed regardless, so a half-broken lab never gets stuck.
Failures along the way are reported as warnings.

Examples:
  labctl teardown auth-fix
  labctl teardown auth-fix --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			ctx := NewContext()

			resp, err := wire.LabService().Destroy(ctx, primary.DestroyLabRequest{
				Name:  name,
				Force: force,
			})
			if err != nil {
				return err
			}

			fmt.Printf("%s Destroyed lab %s\n", okMark, name)
			printWarnings(resp.Warnings)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "remove the worktree even when dirty")

	return cmd
}
