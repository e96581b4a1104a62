package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "vb",
	Short: "VitalBridge health data sync",
	Long: `vb bridges a local health data store to a remote aggregation server.

It registers the platform connection, observes local data changes, and
uploads normalized sample batches keyed by data type. Sync windows are
incremental: each upload resumes from the last confirmed success.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default searches . and ~/.vitalbridge)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
