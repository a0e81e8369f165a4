// Package cli provides CLI commands for the labctl application.
package cli

import (
	gocontext "context"
	"fmt"

	"github.com/fatih/color"
)

// NewContext creates the context CLI commands pass into the services.
// Commands run to completion; there is no mid-step cancellation.
func NewContext() gocontext.Context {
	return gocontext.Background()
}

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnMark = color.New(color.FgYellow).Sprint("!")
	failMark = color.New(color.FgRed).Sprint("✗")
)

func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Printf("  %s %s\n", warnMark, w)
	}
}
