package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Disconnect the health platform from the server",
	Long: `Disconnect tears the platform connection down: notifies the server,
stops observing data changes, and clears local credentials.

The last successful sync timestamp is kept, so a later reconnect resumes
incrementally instead of re-uploading the full backfill window.`,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := buildApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		if err := app.manager.Disconnect(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "Error disconnecting: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Disconnected %s for user %s\n", app.cfg.Platform, app.cfg.UserUUID)
	},
}

func init() {
	rootCmd.AddCommand(disconnectCmd)
}
