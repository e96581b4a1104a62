package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitalbridge/vitalbridge/internal/api"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local and server connection status",
	Long: `Status displays the persisted sync state and, when the server is
reachable, the server's view of the platform connection.`,
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

		fmt.Printf("\nLocal state (%s)\n\n", app.state.Path())
		fmt.Printf("Connected: %t\n", persisted.Connected)
		fmt.Printf("Device ID: %s\n", persisted.DeviceID)
		if persisted.LastSyncedAt != nil {
			fmt.Printf("Last sync: %s\n", persisted.LastSyncedAt.Local().Format(time.RFC3339))
		} else {
			fmt.Printf("Last sync: never\n")
		}

		fmt.Printf("\nServer\n\n")
		conn, err := app.client.CheckConnection(cmd.Context())
		switch {
		case errors.Is(err, api.ErrNotFound):
			fmt.Printf("Connection: none registered\n")
		case err != nil:
			fmt.Printf("Connection: unknown (%v)\n", err)
		default:
			fmt.Printf("Connection: %s logged_in=%t\n",
				app.cfg.Platform, conn.IsConnected(app.cfg.Platform))
			if p, ok := conn.Platforms[app.cfg.Platform]; ok && p.LastSync != "" {
				fmt.Printf("Server last sync: %s\n", p.LastSync)
			}
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
