package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/labctl/internal/wire"
)

// ListCmd returns the list command
func ListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List lab environments",
		Long: `List all registered labs with their ports, branches, and live
session status.

Examples:
  labctl list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			labs, err := wire.LabService().List(ctx)
			if err != nil {
				return err
			}
			if len(labs) == 0 {
				fmt.Println("No labs. Create one with: labctl setup <name>")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBRANCH\tHTTP\tAPI\tSESSION\tDIR")
			for _, lab := range labs {
				session := color.New(color.FgRed).Sprint("stopped")
				if lab.SessionRunning {
					session = color.New(color.FgGreen).Sprint("running")
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
					lab.Record.Name,
					lab.Record.Branch,
					lab.Record.HTTPPort,
					lab.Record.APIPort,
					session,
					lab.Record.Directory,
				)
			}
			return w.Flush()
		},
	}
}
