package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/labctl/internal/cli"
	"github.com/example/labctl/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "labctl",
		Short:   "labctl - per-branch lab environments",
		Version: version.String(),
		Long: `labctl manages isolated lab environments: one git worktree, one k3d
cluster, and one sandboxed agent session per branch, with an optional
reverse proxy serving <name>.local hostnames.`,
	}

	// Lifecycle commands
	rootCmd.AddCommand(cli.SetupCmd())
	rootCmd.AddCommand(cli.TeardownCmd())
	rootCmd.AddCommand(cli.ListCmd())
	rootCmd.AddCommand(cli.AttachCmd())

	// Environment commands
	rootCmd.AddCommand(cli.CheckCmd())
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.ProxyCmd())

	// Notification plumbing
	rootCmd.AddCommand(cli.NotifyCmd())
	rootCmd.AddCommand(cli.NotificationsCmd())
	rootCmd.AddCommand(cli.ResponsesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
