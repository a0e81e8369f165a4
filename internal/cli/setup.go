package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/labctl/internal/ports/primary"
	"github.com/example/labctl/internal/wire"
)

// SetupCmd returns the setup command
func SetupCmd() *cobra.Command {
	var branch string
	var image string

	cmd := &cobra.Command{
		Use:   "setup [name]",
		Short: "Create a new lab environment",
		Long: `Create a complete lab environment for a branch.

This command:
1. Creates a git worktree for the branch
2. Creates a k3d cluster with two dedicated ports
3. Writes a rewritten kubeconfig next to the worktree
4. Launches a detached tmux session running the sandboxed agent
5. Registers the lab and, when the proxy is running, its route

On any provisioning failure everything created so far is rolled back.

Examples:
  labctl setup auth-fix
  labctl setup auth-fix --branch feature/auth
  labctl setup gpu-work --image claude-gpu`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			ctx := NewContext()

			resp, err := wire.LabService().Create(ctx, primary.CreateLabRequest{
				Name:   name,
				Branch: branch,
				Image:  image,
			})
			if err != nil {
				return err
			}

			rec := resp.Record
			fmt.Printf("%s Created lab %s\n", okMark, rec.Name)
			fmt.Printf("  Branch:  %s\n", rec.Branch)
			fmt.Printf("  Dir:     %s\n", rec.Directory)
			fmt.Printf("  HTTP:    localhost:%d\n", rec.HTTPPort)
			fmt.Printf("  API:     localhost:%d\n", rec.APIPort)
			if resp.RouteRegistered {
				fmt.Printf("  Route:   http://%s.local\n", rec.Name)
			}
			printWarnings(resp.Warnings)
			fmt.Println()
			fmt.Printf("Attach with: labctl attach %s\n", rec.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&branch, "branch", "b", "", "branch to check out (default: current branch)")
	cmd.Flags().StringVarP(&image, "image", "i", "", "sandbox image (default: configured docker_image)")

	return cmd
}
