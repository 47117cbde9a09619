package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hostbridge",
	Short: "Run an embedded script application against native capability modules",
	Long: `hostbridge hosts a single embedded script application and bridges
typed calls between it and native capability modules. Bundles are loaded
from a local file or fetched from a development server.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(schemaCmd)
}
