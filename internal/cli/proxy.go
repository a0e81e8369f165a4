package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/labctl/internal/app"
	"github.com/example/labctl/internal/ports/primary"
	"github.com/example/labctl/internal/wire"
)

// ProxyCmd returns the proxy command
func ProxyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Manage the reverse proxy",
		Long: `Manage the Caddy reverse proxy that serves <name>.local hostnames.

The proxy is optional: labs work without it, they are just only reachable
by port. Routes are added and removed through the proxy's admin API, so
labs never cause a proxy restart.`,
	}

	cmd.AddCommand(proxyStartCmd())
	cmd.AddCommand(proxyStopCmd())
	cmd.AddCommand(proxyRestartCmd())
	cmd.AddCommand(proxyStatusCmd())
	cmd.AddCommand(proxyLogsCmd())

	return cmd
}

func proxyStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the proxy container",
		RunE: func(cmd *cobra.Command, args []string) error {
			started, err := wire.ProxyService().Start(NewContext())
			if err != nil {
				return err
			}
			if !started {
				fmt.Printf("%s Proxy already running (container: %s)\n", warnMark, app.ProxyContainerName)
				return nil
			}
			fmt.Printf("%s Proxy started\n", okMark)
			fmt.Println("  Admin API: http://localhost:2019")
			fmt.Println("  Labs resolve at http://<name>.local")
			return nil
		},
	}
}

func proxyStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop and remove the proxy container",
		RunE: func(cmd *cobra.Command, args []string) error {
			stopped, err := wire.ProxyService().Stop(NewContext())
			if err != nil {
				return err
			}
			if !stopped {
				fmt.Println("Proxy is not running.")
				return nil
			}
			fmt.Printf("%s Proxy stopped\n", okMark)
			return nil
		},
	}
}

func proxyRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart the proxy container",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.ProxyService().Restart(NewContext()); err != nil {
				return err
			}
			fmt.Printf("%s Proxy restarted\n", okMark)
			return nil
		},
	}
}

func proxyStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show proxy state and routing table",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := wire.ProxyService().Status(NewContext())
			if err != nil {
				return err
			}

			switch {
			case state.Running:
				fmt.Printf("%s Proxy running (container: %s)\n", okMark, app.ProxyContainerName)
			case state.Exists:
				fmt.Printf("%s Proxy stopped; start it with: labctl proxy start\n", warnMark)
				return nil
			default:
				fmt.Println("Proxy not installed; start it with: labctl proxy start")
				return nil
			}

			printRouteReport(state.Report)
			return nil
		},
	}
}

func printRouteReport(report *primary.RouteReport) {
	if report == nil || (len(report.Routes) == 0 && len(report.Unrouted) == 0) {
		fmt.Println("\nNo routes registered.")
		return
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ROUTE\tHOSTS\tPORT\tSTATE")
	for _, r := range report.Routes {
		state := color.New(color.FgGreen).Sprint("active")
		if r.Orphaned {
			// A route with no registry record: leaked, never auto-removed.
			state = color.New(color.FgYellow).Sprint("ORPHANED")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, strings.Join(r.Hosts, ","), r.Port, state)
	}
	w.Flush()

	for _, name := range report.Unrouted {
		fmt.Printf("%s lab %s has no route (recreate it or restart the proxy)\n", warnMark, name)
	}
}

func proxyLogsCmd() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show proxy container logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ProxyService().Logs(NewContext(), follow)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "stream logs until interrupted")

	return cmd
}
