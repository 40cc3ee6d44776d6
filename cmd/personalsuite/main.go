// Command personalsuite runs the Personal Suite HTTP service and inspects its
// module catalog.
package main

import (
	"os"

	"github.com/spf13/cobra"

	// Built-in modules publish themselves in the default catalog.
	_ "github.com/platinummonkey/personalsuite/pkg/modules/housekeeping"
	_ "github.com/platinummonkey/personalsuite/pkg/modules/notes"
)

var version = "dev" // set by the linker

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Cobra has already printed the error.
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running without a subcommand serves.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "personalsuite",
		Short: "Personal Suite is a modular personal productivity service.",
		Long: `Personal Suite hosts independently developed modules behind one HTTP API.
Modules are discovered from the catalog, constructed with the shared
application and database engine, and registered before the server starts.

Running without a subcommand starts the server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.Version = version
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newModulesCmd())

	return cmd
}
