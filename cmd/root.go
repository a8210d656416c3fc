// Package cmd provides the CLI commands for scadflat.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scadflat",
	Short: "Flatten modular OpenSCAD sources into a single file",
	Long: `scadflat resolves use/include statements in OpenSCAD sources
recursively and produces one self-contained .scad file, suitable for
publishing platforms that accept a single source file.

include statements splice the referenced file in full; use statements carry
only module, function and internal constant definitions across. Files
reachable more than once are expanded on first contact only.`,
}

func Execute() error {
	return rootCmd.Execute()
}
