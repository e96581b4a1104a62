package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync now",
	Long: `Sync fetches new samples since the last successful upload and ships
them to the server as one batch. Without a prior sync, the window covers
the configured backfill period.

Requires an active connection; run 'vb connect' first.`,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := buildApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		persisted, err := app.state.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading sync state: %v\n", err)
			os.Exit(1)
		}
		if !persisted.Connected {
			fmt.Fprintf(os.Stderr, "Error: not connected; run 'vb connect' first\n")
			os.Exit(1)
		}

		if err := app.syncer.Sync(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "Error syncing: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Sync complete")
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
