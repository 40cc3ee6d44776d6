package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/personalsuite/pkg/modules"
)

func newModulesCmd() *cobra.Command {
	var (
		group        string
		manifestPath string
	)

	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List catalog modules without touching the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listModules(cmd, modules.Default(), group, manifestPath)
		},
	}

	cmd.Flags().StringVar(&group, "group", modules.Group, "catalog group to list")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "module manifest to apply (defaults to PERSONALSUITE_MODULES_FILE)")

	return cmd
}

// listModules prints every catalog entry of the group. With a manifest, it
// prints the manifest order and marks each entry enabled, disabled or missing.
func listModules(cmd *cobra.Command, catalog *modules.Catalog, group, manifestPath string) error {
	if manifestPath == "" {
		manifestPath = os.Getenv("PERSONALSUITE_MODULES_FILE")
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()

	if manifestPath == "" {
		fmt.Fprintln(w, "NAME\tSTATUS")
		for _, name := range catalog.Names(group) {
			fmt.Fprintf(w, "%s\t%s\n", name, "available")
		}
		return nil
	}

	manifest, err := modules.LoadManifest(manifestPath)
	if err != nil {
		return err
	}
	if err := manifest.Validate(); err != nil {
		return err
	}

	fmt.Fprintln(w, "NAME\tSTATUS")
	for _, entry := range manifest.Modules {
		status := "enabled"
		if !entry.IsEnabled() {
			status = "disabled"
		} else if _, err := catalog.Resolve(group, entry.Name); err != nil {
			status = "missing"
		}
		fmt.Fprintf(w, "%s\t%s\n", entry.Name, status)
	}
	return nil
}
