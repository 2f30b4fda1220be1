// Package main is the entry point for the lunarc compiler/runtime CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "lunarc",
	Short: "lunarc dataflow DSL compiler and runtime",
}

func init() {
	rootCmd.Version = version + " (commit=" + commit + ", built=" + date + ")"
	rootCmd.SetVersionTemplate("lunarc version {{.Version}}\n")

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (env LUNARC_CONFIG)")

	rootCmd.AddCommand(buildCmd, runCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
